package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"penpal/compose"
	"penpal/messaging"
	"penpal/models"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// backend fakes the messaging and core services
type backend struct {
	mu         sync.Mutex
	server     *httptest.Server
	searches   int
	syncs      int
	sends      []models.SendLetterRequest
	pages      []models.PageLettersRequest
	sendStatus int
	sendDetail string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.searches++
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, models.SearchUsersResponse{
			Count: 1,
			Items: []models.SearchUsersItem{{
				UserProfile: models.UserProfile{UserID: "pal-1", AnonymousHandle: "BlueHeron", CountryCode: strPtr("JP")},
				LatestMessage: &models.MessageRow{
					MessageID:            "m-0",
					ConversationThreadID: "thread-1",
					MessageContent:       "<p>Hello from Kyoto</p>",
					ScheduledDeliveryAt:  "2026-10-14T08:00:00.000Z",
					SenderID:             "pal-1",
					RecipientID:          "user-1",
				},
			}},
		})
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		var req models.SendLetterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.sends = append(b.sends, req)
		status, detail := b.sendStatus, b.sendDetail
		b.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": detail})
			return
		}
		writeJSON(w, http.StatusOK, models.SendLetterResponse{
			MessageID:            "m-1",
			ConversationThreadID: req.ConversationThreadID,
			ScheduledDeliveryAt:  req.ScheduledDeliveryAt,
			SenderID:             req.SenderID,
			RecipientID:          req.RecipientID,
		})
	})
	mux.HandleFunc("/messages/page", func(w http.ResponseWriter, r *http.Request) {
		var req models.PageLettersRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.pages = append(b.pages, req)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": nil, "count": 0, "next_cursor": nil, "has_more": false})
	})
	mux.HandleFunc("/profiles/", func(w http.ResponseWriter, r *http.Request) {
		var req models.ProfileSyncRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.syncs++
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, models.Profile{ID: "user-1", ClerkID: req.ClerkID, AnonymousHandle: "QuietOtter"})
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) client(t *testing.T) *messaging.Client {
	t.Helper()
	c, err := messaging.NewClient(b.server.URL)
	require.NoError(t, err)
	return c
}

func (b *backend) syncCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func strPtr(s string) *string { return &s }

// testErrorHandler renders errors the way the server does for /api routes
func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}
	if appErr, ok := err.(*utils.AppError); ok {
		code = appErr.Code
		body["error"] = appErr.Message
		if len(appErr.Context) > 0 {
			body["details"] = appErr.Context
		}
	} else if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return c.Status(code).JSON(body)
}

func withIdentity(userID, sessionID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalIdentity, compose.Identity{UserID: userID, Handle: "QuietOtter"})
		c.Locals(LocalUserID, userID)
		c.Locals(LocalSessionID, sessionID)
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
