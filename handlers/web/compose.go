package web

import (
	"errors"

	"penpal/compose"
	"penpal/handlers/api"
	"penpal/models"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

type ComposeHandler struct {
	sessions *api.ComposeHandler
}

func NewComposeHandler(sessions *api.ComposeHandler) *ComposeHandler {
	return &ComposeHandler{sessions: sessions}
}

// HandleCompose renders the compose screen. The optional user_id picks
// the recipient; recipients are loaded on the first visit or when the
// requested recipient is not in the list yet.
func (h *ComposeHandler) HandleCompose(c *fiber.Ctx) error {
	s, err := h.sessions.Session(c)
	if err != nil {
		return err
	}
	target := c.Params("user_id")

	load := !s.View().Loaded
	if !load && target != "" {
		load = errors.Is(s.SelectRecipient(target), compose.ErrUnknownRecipient)
	}
	if load {
		// A failure is kept in the session and shown on the page
		if err := s.LoadRecipients(c.UserContext(), target); err != nil {
			utils.Log.Warn("compose page: %v", err)
		}
	}

	return render(c, "compose", fiber.Map{
		"Title":     "compose_title",
		"Target":    target,
		"View":      s.View(),
		"Templates": compose.Templates(),
		"Fonts":     models.FontPresets,
	})
}
