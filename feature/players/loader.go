package players

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the players feature around a running roster engine.
func NewFeature(remote Remote, engine *Engine, logger *zap.Logger, opts ...ServiceOption) *Feature {
	svc := NewService(remote, engine, logger, opts...)
	return &Feature{service: svc, handler: NewHandler(svc, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "players"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the command dispatcher behind the routes.
func (f *Feature) Service() *Service {
	return f.service
}
