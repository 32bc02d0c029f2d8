package api

import (
	"penpal/compose"
	"penpal/editor"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

// ComposeHandler serves the compose screen's JSON actions. Every action
// answers with the updated session view.
type ComposeHandler struct {
	manager *compose.Manager
}

// NewComposeHandler creates a new compose handler
func NewComposeHandler(manager *compose.Manager) *ComposeHandler {
	return &ComposeHandler{manager: manager}
}

// Session returns the caller's compose session
func (h *ComposeHandler) Session(c *fiber.Ctx) (*compose.Session, error) {
	identity, err := IdentityFrom(c)
	if err != nil {
		return nil, err
	}
	key, err := SessionKey(c)
	if err != nil {
		return nil, err
	}
	s, err := h.manager.Get(key, identity)
	if err != nil {
		return nil, utils.InternalServerError("Failed to open the letter", err)
	}
	return s, nil
}

type selectionRequest struct {
	Selection *editor.Selection `json:"selection"`
}

// GetSession handles GET /api/compose
func (h *ComposeHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.View())
}

// LoadRecipients handles POST /api/compose/recipients
func (h *ComposeHandler) LoadRecipients(c *fiber.Ctx) error {
	var req struct {
		Target string `json:"target"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	if err := s.LoadRecipients(c.UserContext(), req.Target); err != nil {
		return appError(err)
	}
	return c.JSON(s.View())
}

// SelectRecipient handles PUT /api/compose/recipient
func (h *ComposeHandler) SelectRecipient(c *fiber.Ctx) error {
	var req struct {
		RecipientID string `json:"recipient_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	if err := s.SelectRecipient(req.RecipientID); err != nil {
		return appError(err)
	}
	return c.JSON(s.View())
}

// UpdateBody handles PUT /api/compose/body
func (h *ComposeHandler) UpdateBody(c *fiber.Ctx) error {
	var req struct {
		Content   string            `json:"content"`
		Selection *editor.Selection `json:"selection"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	changed, err := s.Edit(req.Content)
	if err != nil {
		return appError(err)
	}
	if req.Selection != nil {
		s.Select(*req.Selection)
	}
	return c.JSON(fiber.Map{"changed": changed, "view": s.View()})
}

// UpdateSelection handles POST /api/compose/selection
func (h *ComposeHandler) UpdateSelection(c *fiber.Ctx) error {
	var req selectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Selection == nil {
		return utils.BadRequestError("selection is required", nil)
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	s.Select(*req.Selection)
	return c.SendStatus(fiber.StatusNoContent)
}

// Format handles POST /api/compose/format
func (h *ComposeHandler) Format(c *fiber.Ctx) error {
	var req struct {
		Format    string            `json:"format"`
		Selection *editor.Selection `json:"selection"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	kind, ok := editor.ParseFormat(req.Format)
	if !ok {
		return utils.BadRequestError("Unknown format "+req.Format, nil)
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	changed, err := s.Format(kind, req.Selection)
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"changed": changed, "view": s.View()})
}

// HandleKey handles POST /api/compose/key
func (h *ComposeHandler) HandleKey(c *fiber.Ctx) error {
	var req struct {
		editor.KeyPress
		Selection *editor.Selection `json:"selection"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	cmd, changed, err := s.HandleKey(req.KeyPress, req.Selection)
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"command": cmd, "changed": changed, "view": s.View()})
}

// Undo handles POST /api/compose/undo
func (h *ComposeHandler) Undo(c *fiber.Ctx) error {
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"changed": s.Undo(), "view": s.View()})
}

// Redo handles POST /api/compose/redo
func (h *ComposeHandler) Redo(c *fiber.Ctx) error {
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"changed": s.Redo(), "view": s.View()})
}

// UpdateLetter handles PUT /api/compose/letter
func (h *ComposeHandler) UpdateLetter(c *fiber.Ctx) error {
	var req compose.LetterSettings
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	if err := s.UpdateLetter(req); err != nil {
		return appError(err)
	}
	return c.JSON(s.View())
}

// ApplyTemplate handles POST /api/compose/template
func (h *ComposeHandler) ApplyTemplate(c *fiber.Ctx) error {
	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	if err := s.ApplyTemplate(req.TemplateID); err != nil {
		return appError(err)
	}
	return c.JSON(s.View())
}

// Send handles POST /api/compose/send
func (h *ComposeHandler) Send(c *fiber.Ctx) error {
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	receipt, err := s.Send(c.UserContext())
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"receipt": receipt, "view": s.View()})
}

// Reset handles POST /api/compose/reset
func (h *ComposeHandler) Reset(c *fiber.Ctx) error {
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	s, err := h.Session(c)
	if err != nil {
		return err
	}
	if err := s.Reset(req.Confirmed); err != nil {
		return appError(err)
	}
	return c.JSON(s.View())
}

// Templates handles GET /api/templates
func (h *ComposeHandler) Templates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": compose.Templates()})
}
