package models

// Conversation is one inbox row: a pen pal and the latest letter exchanged
type Conversation struct {
	UserID          string      `json:"user_id"`
	AnonymousHandle string      `json:"anonymous_handle"`
	CountryCode     string      `json:"country_code,omitempty"`
	Flag            string      `json:"flag"`
	Preview         string      `json:"preview"`
	TimeAgo         string      `json:"time_ago,omitempty"`
	Read            bool        `json:"read"`
	FromMe          bool        `json:"from_me"`
	LatestMessage   *MessageRow `json:"latest_message,omitempty"`
}

// InboxPage represents a paginated list of conversations
type InboxPage struct {
	Conversations []Conversation `json:"conversations"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
	Total         int            `json:"total"`
	HasNext       bool           `json:"has_next"`
	HasPrev       bool           `json:"has_prev"`
}

// NewInboxPage creates a new paginated inbox response
func NewInboxPage(conversations []Conversation, page, pageSize, total int) *InboxPage {
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return &InboxPage{
		Conversations: conversations,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		Total:         total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
	}
}
