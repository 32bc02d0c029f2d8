package compose

import (
	"errors"
	"html"

	"penpal/models"
)

// ErrUnknownTemplate is returned when no template has the requested id
var ErrUnknownTemplate = errors.New("unknown template")

var letterTemplates = []models.LetterTemplate{
	{
		ID:          "t1",
		Name:        "Intro — a friendly hello",
		Description: "A warm, short introduction you can send to start a conversation.",
		Content:     `I'm excited to connect with you here. I love learning about people's daily lives and small rituals. What's one little thing that makes your day better?`,
		Category:    "intro",
		Tags:        []string{"first letter", "hello"},
	},
	{
		ID:          "t2",
		Name:        "Travel story",
		Description: "Share a short travel memory to spark conversation.",
		Content:     `I recently took a short trip and was struck by how different the mornings felt there — the light, the sounds, and the food. One morning I wandered into a small market and tried a local pastry that I'll never forget. Have you traveled anywhere that surprised you lately?`,
		Category:    "travel",
		Tags:        []string{"travel", "food"},
	},
	{
		ID:          "t3",
		Name:        "Checking in",
		Description: "A gentle way to reconnect after some time.",
		Content:     `It's been a little while and I wanted to check in and see how you're doing. I hope life has been treating you kindly. What's been keeping you busy these days?`,
		Category:    "reconnect",
		Tags:        []string{"reconnect"},
	},
}

// Templates returns the template catalog with reading estimates filled in
func Templates() []models.LetterTemplate {
	out := make([]models.LetterTemplate, len(letterTemplates))
	for i, t := range letterTemplates {
		t.EstimatedMinutes = GetStats(t.Content).ReadingTimeMinutes
		out[i] = t
	}
	return out
}

// FindTemplate looks up a template by id
func FindTemplate(id string) (models.LetterTemplate, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return models.LetterTemplate{}, false
}

// TemplateBody returns the template text as a body paragraph
func TemplateBody(t models.LetterTemplate) string {
	return "<p>" + html.EscapeString(t.Content) + "</p>"
}
