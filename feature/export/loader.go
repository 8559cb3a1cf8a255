package export

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	exporter *Exporter
	handler  *Handler
	enabled  bool
}

// NewFeature creates the export feature. It mounts nothing unless enabled.
func NewFeature(exporter *Exporter, enabled bool, logger *zap.Logger) *Feature {
	return &Feature{exporter: exporter, handler: NewHandler(exporter, logger), enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "export"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
