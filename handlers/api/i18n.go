package api

import (
	"penpal/middleware"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
)

// clientMessages are the message ids the page scripts need
var clientMessages = []string{
	"compose_send",
	"compose_sending",
	"compose_new_letter",
	"compose_confirm_discard",
	"compose_no_recipients",
	"compose_loading_recipients",
	"compose_words",
	"compose_reading_time",
	"toast.letter_sent.title",
	"toast.letter_sent.description",
	"toast.database_setup.title",
	"toast.database_setup.description",
	"toast.send_failed.title",
	"toast.load_failed.title",
	"toast.load_failed.description",
	"inbox_empty",
	"confirm_yes",
	"confirm_no",
	"error_network",
	"error_404",
	"error_500",
}

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns translations for the client-side JavaScript
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := middleware.MatchLanguage(c.Params("lang"))
	localizer := utils.GetLocalizer(lang)

	translations := make(map[string]string, len(clientMessages))
	for _, id := range clientMessages {
		translations[id] = utils.T(localizer, id)
	}
	return c.JSON(fiber.Map{"lang": lang, "messages": translations})
}
