package export

import (
	"errors"

	"roster-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the last exported roster.
type Handler struct {
	exporter *Exporter
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(exporter *Exporter, logger *zap.Logger) *Handler {
	return &Handler{exporter: exporter, logger: logger}
}

// RegisterRoutes registers the export routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/export/latest", h.HandleLatest)
}

// HandleLatest returns the roster most recently exported to object storage.
// @Summary Latest Export
// @Description Returns the roster most recently exported to object storage.
// @Tags export
// @Produce json
// @Success 200 {object} Document
// @Failure 404 {object} map[string]string "Nothing exported yet"
// @Router /export/latest [get]
func (h *Handler) HandleLatest(c *fiber.Ctx) error {
	doc, err := h.exporter.Latest(c.UserContext())
	if errors.Is(err, ErrNoExport) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to read roster export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(doc)
}
