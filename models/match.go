package models

// Match is a candidate recipient shown in the compose screen
type Match struct {
	ID                   string   `json:"id"`
	DisplayName          string   `json:"name"`
	LocationLabel        string   `json:"location"`
	Interests            []string `json:"interests"`
	ConversationThreadID string   `json:"conversation_thread_id"`
	MatchID              string   `json:"match_id"`
}

// HasThread reports whether a conversation with this match already exists
func (m Match) HasThread() bool {
	return m.ConversationThreadID != ""
}
