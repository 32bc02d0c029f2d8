package compose

import (
	"context"
	"net/http"
	"time"

	"penpal/messaging"
	"penpal/models"
	"penpal/utils"
)

const (
	defaultSearchLimit = 10
	defaultRetryDelay  = 800 * time.Millisecond
	unknownLocation    = "Unknown"
)

// Searcher lists pen pals of a user
type Searcher interface {
	SearchUsers(ctx context.Context, req models.SearchUsersRequest) (*models.SearchUsersResponse, error)
}

// Resolver loads the recipients a letter can be addressed to
type Resolver struct {
	api        Searcher
	limit      int
	retryDelay time.Duration
	log        *utils.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithSearchLimit sets the page size of the search
func WithSearchLimit(limit int) ResolverOption {
	return func(r *Resolver) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithRetryDelay sets the pause before a timed out search is retried
func WithRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.retryDelay = d
		}
	}
}

// NewResolver creates a resolver searching through api
func NewResolver(api Searcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		api:        api,
		limit:      defaultSearchLimit,
		retryDelay: defaultRetryDelay,
		log:        utils.Log.WithField("component", "recipients"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchMatches lists everyone myUserID can write to. A search that times
// out is tried once more after the retry delay; other errors are returned
// as they are.
func (r *Resolver) SearchMatches(ctx context.Context, myUserID string) ([]models.Match, error) {
	req := models.SearchUsersRequest{
		AnonymousHandle: "",
		MyUserID:        myUserID,
		Limit:           r.limit,
		Offset:          0,
	}

	resp, err := r.api.SearchUsers(ctx, req)
	if err != nil && messaging.StatusOf(err) == http.StatusRequestTimeout {
		r.log.Warn("search for %s timed out, retrying in %s", myUserID, r.retryDelay)
		if err := sleep(ctx, r.retryDelay); err != nil {
			return nil, err
		}
		resp, err = r.api.SearchUsers(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return MatchesFromSearch(resp.Items), nil
}

// MatchesFromSearch maps search rows to recipients
func MatchesFromSearch(items []models.SearchUsersItem) []models.Match {
	matches := make([]models.Match, 0, len(items))
	for _, item := range items {
		m := models.Match{
			ID:            item.UserProfile.UserID,
			DisplayName:   item.UserProfile.AnonymousHandle,
			LocationLabel: unknownLocation,
			Interests:     []string{},
		}
		if cc := item.UserProfile.CountryCode; cc != nil && *cc != "" {
			m.LocationLabel = *cc
		}
		if latest := item.LatestMessage; latest != nil {
			m.ConversationThreadID = latest.ConversationThreadID
			m.MatchID = latest.MatchID
		}
		matches = append(matches, m)
	}
	return matches
}

// SelectRecipient picks target when it is among matches, otherwise the
// first match. The target "default" means no preference.
func SelectRecipient(matches []models.Match, target string) (string, bool) {
	if target != "" && target != "default" {
		for _, m := range matches {
			if m.ID == target {
				return m.ID, true
			}
		}
	}
	if len(matches) > 0 {
		return matches[0].ID, true
	}
	return "", false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
