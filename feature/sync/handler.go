package sync

import (
	"errors"

	"worklog/core/logger"
	"worklog/core/reconcile"
	"worklog/core/scheduler"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHeader carries the browsing session id.
const SessionHeader = "X-Session-ID"

type sessionBody struct {
	SessionID string `json:"sessionId"`
}

// Handler handles HTTP requests for sync.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleSync)
	group.Post("/session", h.HandleSessionLoad)
	group.Get("/status", h.HandleStatus)
	group.Delete("/remote/:id", h.HandleDeleteRemote)
}

// sessionID reads the session id from the header or an optional JSON body.
func sessionID(c *fiber.Ctx) string {
	if id := c.Get(SessionHeader); id != "" {
		return id
	}
	var body sessionBody
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&body)
	}
	return body.SessionID
}

func errorStatus(err error) int {
	switch {
	case reconcile.IsConfiguration(err):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, scheduler.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, scheduler.ErrNoSession):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrDeleteUnsupported):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusBadGateway
	}
}

// HandleSync runs a manual pass.
// @Summary Manual Sync
// @Description Runs one reconciliation pass. Fails with 409 while a pass is running and 412 when connection settings are incomplete.
// @Tags sync
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Browsing session whose reload counter is reset"
// @Success 200 {object} sync.Report
// @Failure 409 {object} sync.Report "Pass already running"
// @Failure 412 {object} sync.Report "Configuration incomplete"
// @Failure 502 {object} sync.Report "Remote failure"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	rep, err := h.service.Sync(c.Context(), sessionID(c))
	if err != nil {
		status := errorStatus(err)
		if rep.Message == "" {
			rep.Message = err.Error()
		}
		if status == fiber.StatusBadGateway {
			l.Warn("Manual sync failed", zap.Error(err))
		}
		return c.Status(status).JSON(rep)
	}
	return c.JSON(rep)
}

// HandleSessionLoad applies the session heuristic.
// @Summary Session Load
// @Description Records a page load; the first load and every third reload run a pass.
// @Tags sync
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Browsing session id (or sessionId in the body)"
// @Success 200 {object} sync.Report
// @Failure 400 {object} map[string]string "Missing session id"
// @Router /sync/session [post]
func (h *Handler) HandleSessionLoad(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	rep, err := h.service.SessionLoad(c.Context(), sessionID(c))
	if err != nil {
		status := errorStatus(err)
		if status == fiber.StatusBadRequest {
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}
		// Automatic passes fail quietly; the status endpoint reports the outcome.
		l.Warn("Session sync failed", zap.Error(err))
	}
	return c.JSON(rep)
}

// HandleStatus returns the sync status.
// @Summary Sync Status
// @Tags sync
// @Produce json
// @Success 200 {object} sync.Status
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.Status(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Sync status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleDeleteRemote deletes a record on the remote table.
// @Summary Delete Remote Record
// @Description Administrative delete; the local copy is purged as an orphan on the next pass.
// @Tags sync
// @Param id path string true "Remote record id"
// @Success 204
// @Failure 412 {object} map[string]string "Configuration incomplete"
// @Failure 502 {object} map[string]string "Remote failure"
// @Router /sync/remote/{id} [delete]
func (h *Handler) HandleDeleteRemote(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteRemote(c.Context(), id); err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Remote delete failed", zap.String("id", id), zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
