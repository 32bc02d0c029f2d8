package api

import (
	"context"
	"strings"

	"penpal/inbox"
	"penpal/models"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

// DefaultLetterPageSize is the history page size when none is given
const DefaultLetterPageSize = 5

// InboxHandler serves the conversation list
type InboxHandler struct {
	service *inbox.Service
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(service *inbox.Service) *InboxHandler {
	return &InboxHandler{service: service}
}

// List handles GET /api/inbox?q=&status=&page=&page_size=
func (h *InboxHandler) List(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}

	filter := inbox.Filter{
		Query:  c.Query("q"),
		Status: inbox.ParseStatus(c.Query("status")),
	}
	page, err := h.service.List(c.UserContext(), identity.UserID, filter,
		queryInt(c, "page", 1), queryInt(c, "page_size", inbox.DefaultPageSize))
	if err != nil {
		return appError(err)
	}
	return c.JSON(page)
}

// LetterPager pages through the letters of one conversation
type LetterPager interface {
	PageLetters(ctx context.Context, req models.PageLettersRequest) (*models.PageLettersResponse, error)
}

// LettersHandler serves conversation history
type LettersHandler struct {
	api LetterPager
}

// NewLettersHandler creates a new letters handler
func NewLettersHandler(api LetterPager) *LettersHandler {
	return &LettersHandler{api: api}
}

// Page handles POST /api/letters/page
func (h *LettersHandler) Page(c *fiber.Ctx) error {
	if _, err := IdentityFrom(c); err != nil {
		return err
	}

	var req models.PageLettersRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.ConversationThreadID = strings.TrimSpace(req.ConversationThreadID)
	if req.ConversationThreadID == "" {
		return utils.BadRequestError("conversation_thread_id is required", nil)
	}
	if req.PageSize <= 0 {
		req.PageSize = DefaultLetterPageSize
	}

	resp, err := h.api.PageLetters(c.UserContext(), req)
	if err != nil {
		return appError(err)
	}
	if resp.Items == nil {
		resp.Items = []models.MessageRow{}
	}
	return c.JSON(resp)
}
