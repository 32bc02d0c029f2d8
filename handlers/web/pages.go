package web

import (
	"penpal/middleware"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

// render adds the per-request values every page needs and renders name
// inside the main layout
func render(c *fiber.Ctx, name string, data fiber.Map) error {
	localizer := middleware.GetLocalizerFromCtx(c)
	if data == nil {
		data = fiber.Map{}
	}
	data["Lang"] = c.Locals("lang")
	data["CSRFToken"] = middleware.CSRFToken(c)
	data["T"] = func(id string) string { return utils.T(localizer, id) }
	data["TData"] = func(id string, v map[string]interface{}) string { return utils.TWithData(localizer, id, v) }
	data["TN"] = func(id string, n int) string { return utils.TPlural(localizer, id, n) }
	return c.Render(name, data)
}
