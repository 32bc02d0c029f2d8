package middleware

import (
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// LocaleMiddleware detects and sets the user's locale. The query parameter
// wins over the lang cookie, which wins over Accept-Language; the result is
// matched against the loaded message files.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := MatchLanguage(c.Query("lang"), c.Cookies("lang"), c.Get(fiber.HeaderAcceptLanguage))

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		utils.Log.Debug("Locale detected: %s for path: %s", lang, c.Path())

		return c.Next()
	}
}

// MatchLanguage returns the base language of the best supported match for
// the first non-empty preference
func MatchLanguage(preferences ...string) string {
	supported := utils.SupportedLanguages()
	matcher := language.NewMatcher(supported)

	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		base, _ := supported[idx].Base()
		return base.String()
	}
	return "en"
}

// GetLocalizerFromCtx returns the localizer stored by LocaleMiddleware
func GetLocalizerFromCtx(c *fiber.Ctx) *i18n.Localizer {
	if l, ok := c.Locals("localizer").(*i18n.Localizer); ok {
		return l
	}
	return utils.Localizer
}
