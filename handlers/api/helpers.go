package api

import (
	"errors"
	"strconv"
	"strings"

	"penpal/compose"
	"penpal/editor"
	"penpal/messaging"
	"penpal/storage"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

// IsAPIRequest reports whether the request expects a JSON answer
func IsAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") ||
		strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// IdentityFrom returns the identity stored by the identity middleware
func IdentityFrom(c *fiber.Ctx) (compose.Identity, error) {
	identity, ok := c.Locals(LocalIdentity).(compose.Identity)
	if !ok || identity.UserID == "" {
		return compose.Identity{}, utils.UnauthorizedError("Not signed in", nil)
	}
	return identity, nil
}

// SessionKey returns the fiber session id of the request
func SessionKey(c *fiber.Ctx) (string, error) {
	sid, ok := c.Locals(LocalSessionID).(string)
	if !ok || sid == "" {
		return "", utils.UnauthorizedError("No session", nil)
	}
	return sid, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return utils.BadRequestError("Invalid request body", err)
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// appError maps domain errors onto HTTP errors
func appError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *utils.AppError
	var deliveryErr *compose.DeliveryError
	var apiErr *messaging.APIError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &deliveryErr):
		return utils.BadGatewayError(deliveryErr.Inline(), err).WithContext("kind", string(deliveryErr.Kind))
	case errors.As(err, &apiErr):
		if apiErr.Timeout() {
			return utils.NewAppError(fiber.StatusGatewayTimeout, "The messaging service timed out", err)
		}
		return utils.BadGatewayError("The messaging service failed", err)
	case errors.Is(err, compose.ErrBusy):
		return utils.ConflictError("Another request is still running", err)
	case errors.Is(err, compose.ErrDiscardNeedsConfirmation):
		return utils.ConflictError("Discard the unsent letter?", err).WithContext("needs_confirmation", true)
	case errors.Is(err, editor.ErrReadOnly):
		return utils.ConflictError("The letter has already been sent", err)
	case errors.Is(err, compose.ErrNotReady):
		return utils.BadRequestError("The letter is not ready", err)
	case errors.Is(err, compose.ErrUnknownRecipient),
		errors.Is(err, compose.ErrUnknownTemplate):
		return utils.NotFoundError(err.Error(), err)
	case errors.Is(err, compose.ErrInvalidFont),
		errors.Is(err, storage.ErrUnknownFont):
		return utils.BadRequestError(err.Error(), err)
	}
	return utils.InternalServerError("Internal Server Error", err)
}
