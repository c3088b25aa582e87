package integrity

import (
	"errors"

	"worklog/core/logger"
	"worklog/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/config", h.HandleConfigCheck)
	group.Get("/remote", h.HandleRemoteCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/archive", h.HandleArchiveCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Config, Remote, Schema, Archive). The remote check requests a fresh token when none is cached.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	report["config"] = h.service.CheckConfig()
	report["remote"] = h.service.CheckRemote(ctx)

	// Schema
	if schemaReport, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schemaReport
	}

	// Archive
	if archiveReport, err := h.service.CheckArchive(ctx); errors.Is(err, ErrArchiveDisabled) {
		report["archive"] = map[string]interface{}{"status": "disabled"}
	} else if err != nil {
		report["archive"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["archive"] = archiveReport
	}

	return c.JSON(report)
}

// HandleConfigCheck reports missing connection settings.
// @Summary Check Configuration
// @Description Lists the connection settings that are still empty.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.ConfigReport "Config Report"
// @Router /integrity/config [get]
func (h *Handler) HandleConfigCheck(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckConfig())
}

// HandleRemoteCheck verifies remote authentication.
// @Summary Check Remote Authentication
// @Description Requests an access token with the current credentials.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.RemoteReport "Remote Report"
// @Router /integrity/remote [get]
func (h *Handler) HandleRemoteCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report := h.service.CheckRemote(c.Context())
	if report.Configured && !report.Authenticated {
		l.Warn("Remote authentication failed", zap.String("error", report.Error))
	}
	return c.JSON(report)
}

// HandleSchemaCheck checks the local store schema.
// @Summary Check Local Schema
// @Description Checks if the local database tables match the store models.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleArchiveCheck checks and optionally creates the archive bucket.
// @Summary Check Archive Bucket
// @Description Checks that the snapshot bucket exists and counts its snapshots. Optionally creates the bucket.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create the bucket when missing"
// @Success 200 {object} checks.ArchiveReport "Archive Report"
// @Failure 404 {object} map[string]string "Archive disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/archive [get]
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckArchive(c.Context())
	if errors.Is(err, ErrArchiveDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Archive check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Exists {
		l.Warn("Archive bucket missing", zap.String("bucket", report.Bucket))

		if fix {
			l.Info("Attempting to create archive bucket")
			if err := h.service.FixArchive(c.Context()); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to create bucket",
					"details": err.Error(),
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"bucket": report.Bucket,
			})
		}
	}

	return c.JSON(report)
}
