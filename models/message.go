package models

// SendLetterRequest is the body of POST /messages
type SendLetterRequest struct {
	MatchID              string        `json:"match_id"`
	SenderID             string        `json:"sender_id"`
	RecipientID          string        `json:"recipient_id"`
	ConversationThreadID string        `json:"conversation_thread_id"`
	MessageContent       string        `json:"message_content"`
	LetterStyles         *LetterStyles `json:"letter_styles,omitempty"`
	ScheduledDeliveryAt  string        `json:"scheduled_delivery_at,omitempty"`
	LetterHeading        string        `json:"letter_heading,omitempty"`
	LetterFooter         string        `json:"letter_footer,omitempty"`
}

// SendLetterResponse is the stored message returned by POST /messages
type SendLetterResponse struct {
	MessageID            string `json:"message_id"`
	ConversationThreadID string `json:"conversation_thread_id"`
	MessageSequence      int    `json:"message_sequence"`
	MessageContent       string `json:"message_content"`
	ScheduledDeliveryAt  string `json:"scheduled_delivery_at"`
	SenderID             string `json:"sender_id"`
	RecipientID          string `json:"recipient_id"`
}

// MessageRow is a single letter as listed by the messaging service
type MessageRow struct {
	MessageID            string  `json:"message_id"`
	ConversationThreadID string  `json:"conversation_thread_id"`
	MatchID              string  `json:"match_id,omitempty"`
	MessageSequence      int     `json:"message_sequence,omitempty"`
	MessageContent       string  `json:"message_content"`
	ScheduledDeliveryAt  string  `json:"scheduled_delivery_at"`
	ReadAt               *string `json:"read_at,omitempty"`
	IsRead               bool    `json:"is_read,omitempty"`
	FromMe               bool    `json:"from_me,omitempty"`
	DeliveryStatus       string  `json:"delivery_status,omitempty"`
	SenderID             string  `json:"sender_id"`
	RecipientID          string  `json:"recipient_id"`
}

// Read reports whether the recipient has opened the letter
func (m *MessageRow) Read() bool {
	return m.IsRead || (m.ReadAt != nil && *m.ReadAt != "")
}

// PageLettersRequest is the body of POST /messages/page
type PageLettersRequest struct {
	ConversationThreadID string `json:"conversation_thread_id"`
	PageSize             int    `json:"page_size,omitempty"`
	LastMessageID        string `json:"last_message_id,omitempty"`
}

// PageLettersResponse is one cursor page of a conversation
type PageLettersResponse struct {
	Items      []MessageRow `json:"items"`
	Count      int          `json:"count"`
	NextCursor *string      `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

// SearchUsersRequest is the body of POST /search
type SearchUsersRequest struct {
	AnonymousHandle string `json:"anonymous_handle"`
	MyUserID        string `json:"my_user_id"`
	Limit           int    `json:"limit,omitempty"`
	Offset          int    `json:"offset"`
}

// UserProfile is the public part of a pen pal's profile
type UserProfile struct {
	UserID          string  `json:"user_id"`
	AnonymousHandle string  `json:"anonymous_handle"`
	CountryCode     *string `json:"country_code,omitempty"`
}

// SearchUsersItem pairs a profile with the latest letter exchanged with it
type SearchUsersItem struct {
	UserProfile   UserProfile `json:"user_profile"`
	LatestMessage *MessageRow `json:"latest_message"`
}

// SearchUsersResponse is the result of POST /search
type SearchUsersResponse struct {
	Count int               `json:"count"`
	Items []SearchUsersItem `json:"items"`
}
