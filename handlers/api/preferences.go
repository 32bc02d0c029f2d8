package api

import (
	"penpal/models"
	"penpal/storage"

	"github.com/gofiber/fiber/v2"
)

// FontHandler serves the font catalog and the writer's favourites
type FontHandler struct {
	prefs *storage.PreferenceStorage
}

// NewFontHandler creates a new font handler
func NewFontHandler(prefs *storage.PreferenceStorage) *FontHandler {
	return &FontHandler{prefs: prefs}
}

// List handles GET /api/fonts
func (h *FontHandler) List(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}
	favorites, err := h.prefs.FavoriteFonts(identity.UserID)
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"fonts": models.FontPresets, "favorites": favorites})
}

// Favorites handles GET /api/fonts/favorites
func (h *FontHandler) Favorites(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}
	favorites, err := h.prefs.FavoriteFonts(identity.UserID)
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"favorites": favorites})
}

// SetFavorites handles PUT /api/fonts/favorites
func (h *FontHandler) SetFavorites(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}
	var req struct {
		FontIDs []string `json:"font_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	favorites, err := h.prefs.SetFavoriteFonts(identity.UserID, req.FontIDs)
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"favorites": favorites})
}

// ToggleFavorite handles POST /api/fonts/favorites/:id/toggle
func (h *FontHandler) ToggleFavorite(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}
	favorites, favorite, err := h.prefs.ToggleFavoriteFont(identity.UserID, c.Params("id"))
	if err != nil {
		return appError(err)
	}
	return c.JSON(fiber.Map{"favorites": favorites, "favorite": favorite})
}
