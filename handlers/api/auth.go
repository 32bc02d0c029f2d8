package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"penpal/compose"
	"penpal/config"
	"penpal/models"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/golang-jwt/jwt/v5"
)

// Locals set by the identity middleware
const (
	LocalIdentity  = "identity"
	LocalUserID    = "user_id"
	LocalSessionID = "session_id"
)

// Session keys
const (
	sessionSubject = "subject"
	sessionUserID  = "user_id"
	sessionHandle  = "handle"
)

// Claims are the identity-provider token claims we read
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks identity-provider session tokens
type TokenVerifier struct {
	key     interface{}
	methods []string
	issuer  string
}

// NewTokenVerifier builds an RS256 verifier when a public key file is
// configured, else an HS256 verifier on the shared secret
func NewTokenVerifier(cfg config.AuthConfig) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: cfg.Issuer}
	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		v.key = key
		v.methods = []string{jwt.SigningMethodRS256.Alg()}
	case cfg.JWTSecret != "":
		v.key = []byte(cfg.JWTSecret)
		v.methods = []string{jwt.SigningMethodHS256.Alg()}
	default:
		return nil, errors.New("no token verification key configured")
	}
	return v, nil
}

// Verify parses token and returns its claims. The token must carry a
// subject and an expiry.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// ProfileSyncer creates or fetches the core-service profile of a user
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, req models.ProfileSyncRequest) (*models.Profile, error)
}

// AuthHandler resolves the signed-in writer of every request
type AuthHandler struct {
	cfg      config.AuthConfig
	store    *session.Store
	verifier *TokenVerifier
	profiles ProfileSyncer
	timeout  time.Duration
}

// NewAuthHandler creates the handler. With auth disabled no verifier is
// needed and the configured development identity is used.
func NewAuthHandler(cfg config.AuthConfig, store *session.Store, profiles ProfileSyncer, timeout time.Duration) (*AuthHandler, error) {
	h := &AuthHandler{
		cfg:      cfg,
		store:    store,
		profiles: profiles,
		timeout:  timeout,
	}
	if !cfg.Disabled {
		v, err := NewTokenVerifier(cfg)
		if err != nil {
			return nil, err
		}
		h.verifier = v
	}
	return h, nil
}

// SessionMiddleware verifies the caller and stores its identity in the
// request locals. The profile sync runs once per fiber session and subject.
func (h *AuthHandler) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, email, err := h.subject(c)
		if err != nil {
			return err
		}

		sess, err := h.store.Get(c)
		if err != nil {
			return utils.InternalServerError("Session error", err)
		}
		sid := sess.ID()

		identity, cached := sessionIdentity(sess, subject)
		if !cached {
			identity, err = h.resolve(c.UserContext(), subject, email)
			if err != nil {
				return err
			}
			sess.Set(sessionSubject, subject)
			sess.Set(sessionUserID, identity.UserID)
			sess.Set(sessionHandle, identity.Handle)
		}
		if !cached || sess.Fresh() {
			if err := sess.Save(); err != nil {
				return utils.InternalServerError("Session error", err)
			}
		}

		c.Locals(LocalIdentity, identity)
		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalSessionID, sid)
		return c.Next()
	}
}

func (h *AuthHandler) subject(c *fiber.Ctx) (string, string, error) {
	if h.cfg.Disabled {
		return h.cfg.DevSubject, "", nil
	}

	token := bearerToken(c)
	if token == "" {
		token = c.Cookies(h.cfg.CookieName)
	}
	if token == "" {
		return "", "", utils.UnauthorizedError("Not signed in", nil)
	}
	claims, err := h.verifier.Verify(token)
	if err != nil {
		utils.Log.Debug("rejected session token: %v", err)
		return "", "", utils.UnauthorizedError("Invalid session", err)
	}
	return claims.Subject, claims.Email, nil
}

func (h *AuthHandler) resolve(ctx context.Context, subject, email string) (compose.Identity, error) {
	if h.cfg.Disabled && h.cfg.DevUserID != "" {
		return compose.Identity{UserID: h.cfg.DevUserID, Handle: h.cfg.DevHandle}, nil
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	handle := email
	if handle == "" && h.cfg.Disabled {
		handle = h.cfg.DevHandle
	}
	profile, err := h.profiles.SyncProfile(ctx, models.ProfileSyncRequest{
		ClerkID:         subject,
		AnonymousHandle: handle,
	})
	if err != nil {
		utils.Log.Error("profile sync for %s failed: %v", subject, err)
		return compose.Identity{}, utils.BadGatewayError("Failed to sync profile", err)
	}
	if profile.Identifier() == "" {
		return compose.Identity{}, utils.BadGatewayError("Profile has no user id", nil)
	}

	utils.Log.Info("profile synced for %s as %s", subject, profile.Identifier())
	return compose.Identity{UserID: profile.Identifier(), Handle: profile.AnonymousHandle}, nil
}

func sessionIdentity(sess *session.Session, subject string) (compose.Identity, bool) {
	if s, _ := sess.Get(sessionSubject).(string); s != subject {
		return compose.Identity{}, false
	}
	id, _ := sess.Get(sessionUserID).(string)
	if id == "" {
		return compose.Identity{}, false
	}
	handle, _ := sess.Get(sessionHandle).(string)
	return compose.Identity{UserID: id, Handle: handle}, true
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
