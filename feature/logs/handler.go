package logs

import (
	"errors"

	"worklog/core/logger"
	"worklog/core/models"
	"worklog/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for log records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the log routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/logs")
	group.Get("/week", h.HandleWeek)
	group.Get("/categories", h.HandleCategories)
	group.Get("/:id", h.HandleGet)
	group.Post("/", h.HandleCreate)
	group.Put("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrUnknownCategory):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDeleted):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := errorStatus(err)
	l := logger.WithRayID(h.service.logger, c)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleWeek returns the weekly view.
// @Summary Weekly View
// @Description Returns the Sunday-to-Saturday week containing date, excluding deleted records.
// @Tags logs
// @Produce json
// @Param date query string false "Any date in the week (YYYY/MM/DD), defaults to today"
// @Param q query string false "Case-insensitive content search"
// @Param category query string false "Category filter, 'all' for none"
// @Success 200 {object} logs.Week
// @Failure 400 {object} map[string]string "Invalid date"
// @Router /logs/week [get]
func (h *Handler) HandleWeek(c *fiber.Ctx) error {
	week, err := h.service.Week(c.Context(), c.Query("date"), Filter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	if err != nil {
		return h.fail(c, "Week listing failed", err)
	}
	return c.JSON(week)
}

// HandleCategories returns the category options.
// @Summary List Categories
// @Tags logs
// @Produce json
// @Success 200 {array} string
// @Router /logs/categories [get]
func (h *Handler) HandleCategories(c *fiber.Ctx) error {
	return c.JSON(h.service.Categories(c.Context()))
}

// HandleGet returns one record.
// @Summary Get Log Record
// @Tags logs
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} models.LogRecord
// @Failure 404 {object} map[string]string "Not Found"
// @Router /logs/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Log record lookup failed", err)
	}
	return c.JSON(rec)
}

// HandleCreate creates a record.
// @Summary Create Log Record
// @Description Stores a new unsynced record under a temporary id.
// @Tags logs
// @Accept json
// @Produce json
// @Param record body logs.Input true "Record fields"
// @Success 201 {object} models.LogRecord
// @Failure 400 {object} map[string]string "Validation error"
// @Router /logs [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	rec, err := h.service.Create(c.Context(), in)
	if err != nil {
		return h.fail(c, "Log record create failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// HandleUpdate edits a record.
// @Summary Update Log Record
// @Tags logs
// @Accept json
// @Produce json
// @Param id path string true "Record id"
// @Param record body logs.Input true "Record fields"
// @Success 200 {object} models.LogRecord
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Record is deleted"
// @Router /logs/{id} [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	rec, err := h.service.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, "Log record update failed", err)
	}
	return c.JSON(rec)
}

// HandleDelete soft-deletes a record.
// @Summary Delete Log Record
// @Description Marks the record for deletion; the next sync removes it remotely.
// @Tags logs
// @Param id path string true "Record id"
// @Success 204
// @Failure 404 {object} map[string]string "Not Found"
// @Router /logs/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Log record delete failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
