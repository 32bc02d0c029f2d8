// Package compose holds the letter being written: the draft and its
// statistics, the recipient list, delivery to the messaging service and
// the per-browser compose session tying them together.
package compose

import (
	"math"
	"strings"
	"unicode/utf8"
)

const wordsPerMinute = 200

// Stats are the counters shown under the editor
type Stats struct {
	WordCount          int `json:"word_count"`
	CharCount          int `json:"char_count"`
	ReadingTimeMinutes int `json:"reading_time_minutes"`
}

// GetStats counts whitespace-separated words and characters of a plain
// text letter. Reading time is at least one minute.
func GetStats(text string) Stats {
	words := len(strings.Fields(text))
	minutes := int(math.Floor(float64(words)/wordsPerMinute + 0.5))
	if minutes < 1 {
		minutes = 1
	}
	return Stats{
		WordCount:          words,
		CharCount:          utf8.RuneCountInString(text),
		ReadingTimeMinutes: minutes,
	}
}
