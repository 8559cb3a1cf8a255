package players

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roster-sync/core/reconcile"
	"roster-sync/core/utils"
	"roster-sync/feature/players/models"

	"go.uber.org/zap"
)

// SnapshotErrorPrefix prefixes the error shown when the roster cannot be loaded.
const SnapshotErrorPrefix = "failed to load players"

// Engine is the reconciliation engine specialised to players.
type Engine = reconcile.Engine[int, models.Player]

// View is a published roster state.
type View = reconcile.View[models.Player]

// Remote is the command side of the players backend.
type Remote interface {
	CreatePlayer(ctx context.Context, p models.NewPlayer) (models.Player, error)
	UpdatePlayer(ctx context.Context, id int, p models.NewPlayer) error
	DeletePlayer(ctx context.Context, id int) error
	RegisterFCMToken(ctx context.Context, t models.FCMToken) error
}

// NewEngine builds the player roster engine from its two collaborators.
func NewEngine(ctx context.Context, snapshots reconcile.Snapshotter[models.Player], events reconcile.Subscriber[int, models.Player], cfg reconcile.Config, logger *zap.Logger) *Engine {
	return reconcile.NewEngine(ctx, reconcile.Spec[int, models.Player]{
		Snapshots:           snapshots,
		Events:              events,
		Key:                 models.PlayerKey,
		ErrorTTL:            cfg.ErrorTTL(),
		SnapshotErrorPrefix: SnapshotErrorPrefix,
		Logger:              logger,
	})
}

// Service dispatches player commands to the backend. Successful commands do
// not touch the roster; their effect arrives through the event feed.
type Service struct {
	remote    Remote
	engine    *Engine
	logger    *zap.Logger
	pushToken string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPushToken sets the device push token registered for every player
// created with an email. Empty disables registration.
func WithPushToken(token string) ServiceOption {
	return func(s *Service) {
		s.pushToken = strings.TrimSpace(token)
	}
}

// NewService creates a new players service.
func NewService(remote Remote, engine *Engine, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		remote: remote,
		engine: engine,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the current roster view.
func (s *Service) View() View {
	return s.engine.View()
}

// Subscribe observes every roster transition.
func (s *Service) Subscribe() *reconcile.Observation[View] {
	return s.engine.Subscribe()
}

// Create asks the backend to create a player.
func (s *Service) Create(ctx context.Context, p models.NewPlayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	created, err := s.remote.CreatePlayer(ctx, p)
	if err != nil {
		return s.fail(err, "failed to add player")
	}
	s.logger.Info("Player create accepted",
		zap.Int("id", created.ID),
		zap.String("name", created.Name),
		zap.String("age", utils.ToString(created.Age)))

	s.registerPushToken(ctx, p.Email)
	return nil
}

// registerPushToken links the device push token to email. Failures are only
// logged; the create has already succeeded.
func (s *Service) registerPushToken(ctx context.Context, email string) {
	email = strings.TrimSpace(email)
	if s.pushToken == "" || email == "" {
		return
	}
	t := models.FCMToken{UserID: email, Token: s.pushToken}
	if err := s.remote.RegisterFCMToken(ctx, t); err != nil {
		s.logger.Warn("Failed to register push token for new player", zap.String("user_id", email), zap.Error(err))
		return
	}
	s.logger.Debug("Registered push token", zap.String("user_id", email))
}

// Update asks the backend to replace player id.
func (s *Service) Update(ctx context.Context, id int, p models.NewPlayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.remote.UpdatePlayer(ctx, id, p); err != nil {
		return s.fail(err, "failed to update player")
	}
	s.logger.Info("Player update accepted", zap.Int("id", id))
	return nil
}

// Delete asks the backend to remove player id.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.remote.DeletePlayer(ctx, id); err != nil {
		return s.fail(err, "failed to delete player")
	}
	s.logger.Info("Player delete accepted", zap.Int("id", id))
	return nil
}

// ClearError dismisses the surfaced error.
func (s *Service) ClearError() error {
	return s.engine.ClearError()
}

// RegisterToken registers a push token. Failures are logged and returned but
// never surfaced in the roster view.
func (s *Service) RegisterToken(ctx context.Context, t models.FCMToken) error {
	if err := t.Validate(); err != nil {
		return errors.Join(models.ErrInvalidPlayer, err)
	}
	if err := s.remote.RegisterFCMToken(ctx, t); err != nil {
		s.logger.Error("Failed to register push token", zap.String("user_id", t.UserID), zap.Error(err))
		return fmt.Errorf("%w: %w", reconcile.ErrCommandFailed, err)
	}
	return nil
}

func (s *Service) fail(err error, message string) error {
	s.logger.Error("Player command failed", zap.String("action", message), zap.Error(err))
	if setErr := s.engine.SetError(fmt.Sprintf("%s: %v", message, err)); setErr != nil {
		s.logger.Debug("Could not surface command error", zap.Error(setErr))
	}
	return fmt.Errorf("%w: %s: %w", reconcile.ErrCommandFailed, message, err)
}
