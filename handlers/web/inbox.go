package web

import (
	"penpal/handlers/api"
	"penpal/inbox"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

type InboxHandler struct {
	service *inbox.Service
}

func NewInboxHandler(service *inbox.Service) *InboxHandler {
	return &InboxHandler{service: service}
}

// HandleInbox renders the conversation list. A failed load renders the
// page with the error instead of failing the request.
func (h *InboxHandler) HandleInbox(c *fiber.Ctx) error {
	identity, err := api.IdentityFrom(c)
	if err != nil {
		return err
	}

	filter := inbox.Filter{
		Query:  c.Query("q"),
		Status: inbox.ParseStatus(c.Query("status")),
	}
	page := c.QueryInt("page", 1)

	data := fiber.Map{
		"Title":  "inbox_title",
		"Handle": identity.Handle,
		"Query":  filter.Query,
		"Status": string(filter.Status),
	}
	result, err := h.service.List(c.UserContext(), identity.UserID, filter, page, inbox.DefaultPageSize)
	if err != nil {
		utils.Log.Warn("inbox page for %s: %v", identity.UserID, err)
		data["LoadFailed"] = true
	} else {
		data["Page"] = result
	}
	return render(c, "inbox", data)
}
