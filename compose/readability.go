package compose

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CEFRLevel is a language proficiency level from A1 to C2
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

// letters longer than this many words also get a sentence count
const sentenceThreshold = 15

var (
	vowelGroup   = regexp.MustCompile(`(?i)[aeiouy]+`)
	sentenceStop = regexp.MustCompile(`[.!?]+`)
)

// Readability is the outcome of the readability estimate
type Readability struct {
	Level         CEFRLevel `json:"level"`
	Words         int       `json:"words"`
	AvgWordLength float64   `json:"avg_word_length"`
	AvgSyllables  float64   `json:"avg_syllables"`
	// Sentences is counted for letters of 15 words or more. It does not
	// take part in the level.
	Sentences int `json:"sentences,omitempty"`
}

// EstimateReadability guesses the CEFR level of a letter
func EstimateReadability(text string) CEFRLevel {
	return AnalyzeReadability(text).Level
}

// AnalyzeReadability scores text by average word length and syllables per
// word, counting a syllable for every vowel group and at least one per
// word. Text shorter than five characters is A1.
func AnalyzeReadability(text string) Readability {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 5 {
		return Readability{Level: LevelA1}
	}

	words := strings.Fields(trimmed)
	var letters, syllables int
	for _, w := range words {
		letters += utf8.RuneCountInString(w)
		if n := len(vowelGroup.FindAllStringIndex(w, -1)); n > 0 {
			syllables += n
		} else {
			syllables++
		}
	}

	r := Readability{
		Words:         len(words),
		AvgWordLength: float64(letters) / float64(len(words)),
		AvgSyllables:  float64(syllables) / float64(len(words)),
	}
	if r.Words >= sentenceThreshold {
		r.Sentences = countSentences(text)
	}
	r.Level = levelFor(r.AvgWordLength, r.AvgSyllables)
	return r
}

func levelFor(avgWordLen, avgSyllables float64) CEFRLevel {
	switch {
	case avgWordLen < 4.5 && avgSyllables < 1.5:
		return LevelA2
	case avgWordLen < 5.5 && avgSyllables < 1.7:
		return LevelB1
	case avgWordLen < 6.5 && avgSyllables < 1.9:
		return LevelB2
	case avgWordLen < 7.5 && avgSyllables < 2.2:
		return LevelC1
	}
	return LevelC2
}

func countSentences(text string) int {
	count := 0
	for _, s := range sentenceStop.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	return count
}
