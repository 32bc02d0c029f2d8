package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all markup
	StrictPolicy *bluemonday.Policy
	// LetterPolicy allows the markup the letter editor can produce
	LetterPolicy *bluemonday.Policy
)

func init() {
	StrictPolicy = bluemonday.StrictPolicy()

	LetterPolicy = bluemonday.NewPolicy()
	LetterPolicy.AllowElements("p", "br", "div", "span")
	LetterPolicy.AllowElements("strong", "b", "em", "i", "u", "s")
	LetterPolicy.AllowElements("ul", "ol", "li")
	LetterPolicy.AllowElements("blockquote", "h1", "h2", "h3")

	LetterPolicy.AllowAttrs("start").Matching(regexp.MustCompile(`^[0-9]+$`)).OnElements("ol")
	LetterPolicy.AllowAttrs("class").Globally()
}

// SanitizeLetterHTML sanitizes a letter body before it leaves the server
func SanitizeLetterHTML(body string) string {
	return LetterPolicy.Sanitize(body)
}

// SanitizeText turns user input into a single line of plain text, used for
// letter headings and footers.
func SanitizeText(s string) string {
	text := html.UnescapeString(StrictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}
