package settings

import (
	"errors"

	"worklog/core/logger"
	coresettings "worklog/core/settings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for settings.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the settings routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/settings")
	group.Get("/", h.HandleGet)
	group.Put("/", h.HandleUpdate)
	group.Get("/types", h.HandleTypes)
}

// HandleGet returns the settings.
// @Summary Get Settings
// @Description Returns the connection settings with the app secret redacted.
// @Tags settings
// @Produce json
// @Success 200 {object} coresettings.Settings
// @Router /settings [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(h.service.Get())
}

// HandleUpdate applies a partial update.
// @Summary Update Settings
// @Description Omitted fields are left unchanged. Changing syncInterval re-arms the periodic sync.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body coresettings.Patch true "Fields to change"
// @Success 200 {object} coresettings.Settings
// @Failure 400 {object} map[string]string "Invalid settings"
// @Router /settings [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var patch coresettings.Patch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.service.Update(c.Context(), patch)
	if err != nil {
		if errors.Is(err, coresettings.ErrInvalidSettings) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Settings update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(updated)
}

// HandleTypes returns the category options of the remote table.
// @Summary List Types
// @Description Category options from the remote schema, or the single fallback when unavailable.
// @Tags settings
// @Produce json
// @Param refresh query boolean false "Bypass the cached list"
// @Success 200 {array} string
// @Router /settings/types [get]
func (h *Handler) HandleTypes(c *fiber.Ctx) error {
	return c.JSON(h.service.Types(c.Context(), c.Query("refresh") == "true"))
}
