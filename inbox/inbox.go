// Package inbox builds the conversation list of the inbox screen from the
// messaging service's search results.
package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"penpal/editor"
	"penpal/models"
	"penpal/utils"
)

const (
	// DefaultLimit is how many conversations are fetched per search
	DefaultLimit = 50
	// DefaultPageSize is the number of conversations per inbox page
	DefaultPageSize = 20
	// PreviewLength is the longest message preview, in characters
	PreviewLength = 60

	noCountryFlag = "🌍"
)

// Status filters conversations by whether the latest letter was read
type Status string

const (
	StatusAll    Status = "all"
	StatusRead   Status = "read"
	StatusUnread Status = "unread"
)

// ParseStatus maps a query value to a Status, defaulting to all
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusRead:
		return StatusRead
	case StatusUnread:
		return StatusUnread
	}
	return StatusAll
}

// Filter narrows the conversation list
type Filter struct {
	// Query matches a case-insensitive part of the pen pal's handle
	Query  string
	Status Status
}

// Matches reports whether c passes the filter
func (f Filter) Matches(c models.Conversation) bool {
	if q := strings.TrimSpace(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(c.AnonymousHandle), strings.ToLower(q)) {
		return false
	}
	switch f.Status {
	case StatusRead:
		return c.Read
	case StatusUnread:
		return !c.Read
	}
	return true
}

// Apply returns the conversations passing the filter, in order
func Apply(convs []models.Conversation, f Filter) []models.Conversation {
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Conversations turns search rows into inbox rows
func Conversations(items []models.SearchUsersItem, now time.Time) []models.Conversation {
	convs := make([]models.Conversation, 0, len(items))
	for _, item := range items {
		c := models.Conversation{
			UserID:          item.UserProfile.UserID,
			AnonymousHandle: item.UserProfile.AnonymousHandle,
			Flag:            noCountryFlag,
		}
		if cc := item.UserProfile.CountryCode; cc != nil && *cc != "" {
			c.CountryCode = *cc
			c.Flag = CountryFlag(*cc)
		}
		if m := item.LatestMessage; m != nil {
			c.LatestMessage = m
			c.Preview = Preview(editor.PlainText(m.MessageContent), PreviewLength)
			c.TimeAgo = TimeAgo(m.ScheduledDeliveryAt, now)
			c.Read = m.Read()
			c.FromMe = m.FromMe
		}
		convs = append(convs, c)
	}
	return convs
}

// Preview shortens text to max characters, marking the cut with "..."
func Preview(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

// CountryFlag turns a two-letter country code into its flag emoji
func CountryFlag(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return noCountryFlag
	}
	var b strings.Builder
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return noCountryFlag
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

// TimeAgo renders the age of an RFC 3339 timestamp as "3d ago", "5h ago"
// or "Just now". Unparseable timestamps give "".
func TimeAgo(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ""
	}
	hours := int(now.Sub(t).Hours())
	switch days := hours / 24; {
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh ago", hours)
	}
	return "Just now"
}

// Paginate cuts one page out of convs. Pages start at 1; out of range
// pages are clamped.
func Paginate(convs []models.Conversation, page, pageSize int) *models.InboxPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(convs)
	lastPage := (total + pageSize - 1) / pageSize
	if lastPage == 0 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return models.NewInboxPage(convs[start:end], page, pageSize, total)
}

// Searcher lists pen pals of a user
type Searcher interface {
	SearchUsers(ctx context.Context, req models.SearchUsersRequest) (*models.SearchUsersResponse, error)
}

// Service loads and filters a user's inbox
type Service struct {
	api   Searcher
	limit int
	now   func() time.Time
	log   *utils.Logger
}

// NewService creates an inbox service. A non-positive limit uses
// DefaultLimit.
func NewService(api Searcher, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		api:   api,
		limit: limit,
		now:   time.Now,
		log:   utils.Log.WithField("component", "inbox"),
	}
}

// List fetches the conversations of userID and returns the requested page
// of those passing f
func (s *Service) List(ctx context.Context, userID string, f Filter, page, pageSize int) (*models.InboxPage, error) {
	resp, err := s.api.SearchUsers(ctx, models.SearchUsersRequest{
		AnonymousHandle: "",
		MyUserID:        userID,
		Limit:           s.limit,
		Offset:          0,
	})
	if err != nil {
		s.log.Error("failed to load conversations for %s: %v", userID, err)
		return nil, fmt.Errorf("load conversations: %w", err)
	}

	convs := Apply(Conversations(resp.Items, s.now()), f)
	return Paginate(convs, page, pageSize), nil
}
