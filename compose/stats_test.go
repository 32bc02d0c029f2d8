package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestGetStats(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Stats
	}{
		{"empty", "", Stats{WordCount: 0, CharCount: 0, ReadingTimeMinutes: 1}},
		{"greeting", "Hello there", Stats{WordCount: 2, CharCount: 11, ReadingTimeMinutes: 1}},
		{"extra whitespace", "  Hello \n\t there  ", Stats{WordCount: 2, CharCount: 18, ReadingTimeMinutes: 1}},
		{"multibyte", "café au lait", Stats{WordCount: 3, CharCount: 12, ReadingTimeMinutes: 1}},
		{"400 words", words(400), Stats{WordCount: 400, CharCount: 1999, ReadingTimeMinutes: 2}},
		{"rounds half up", words(300), Stats{WordCount: 300, CharCount: 1499, ReadingTimeMinutes: 2}},
		{"rounds down", words(299), Stats{WordCount: 299, CharCount: 1494, ReadingTimeMinutes: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetStats(tc.text))
		})
	}
}
