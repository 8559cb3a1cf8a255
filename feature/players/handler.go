package players

import (
	"errors"
	"strings"

	"roster-sync/core/logger"
	"roster-sync/core/reconcile"
	"roster-sync/core/utils"
	"roster-sync/feature/players/api"
	"roster-sync/feature/players/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the roster and player commands over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// PlayerRequest is the body of create and update requests. Age accepts a
// number, a numeric string or null.
type PlayerRequest struct {
	Name  string `json:"name"`
	Age   any    `json:"age" swaggertype:"integer"`
	Email string `json:"email,omitempty"`
}

// RegisterRoutes registers the players routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/players")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Delete("/error", h.HandleClearError)
	group.Post("/fcm-token", h.HandleRegisterToken)
	group.Put("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
}

// HandleList returns the current roster view.
// @Summary Get Roster
// @Description Returns the reconciled player list with its loading flag and surfaced error.
// @Tags players
// @Produce json
// @Success 200 {object} View
// @Router /players [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.service.View())
}

// HandleCreate requests a new player.
// @Summary Create Player
// @Description Forwards the create to the backend. The player appears in the roster once the backend announces it.
// @Tags players
// @Accept json
// @Produce json
// @Param player body PlayerRequest true "Player"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} map[string]string "Invalid player"
// @Failure 502 {object} map[string]string "Backend rejected the command"
// @Router /players [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	p, err := parsePlayer(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.service.Create(c.UserContext(), p); err != nil {
		return h.commandError(c, l, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// HandleUpdate requests a player update.
// @Summary Update Player
// @Tags players
// @Accept json
// @Produce json
// @Param id path int true "Player ID"
// @Param player body PlayerRequest true "Player"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} map[string]string "Invalid player"
// @Failure 404 {object} map[string]string "Unknown player"
// @Failure 502 {object} map[string]string "Backend rejected the command"
// @Router /players/{id} [put]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, errors.New("id must be an integer"))
	}
	p, err := parsePlayer(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.service.Update(c.UserContext(), id, p); err != nil {
		return h.commandError(c, l, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// HandleDelete requests a player removal.
// @Summary Delete Player
// @Tags players
// @Produce json
// @Param id path int true "Player ID"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 404 {object} map[string]string "Unknown player"
// @Failure 502 {object} map[string]string "Backend rejected the command"
// @Router /players/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, errors.New("id must be an integer"))
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.commandError(c, l, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// HandleClearError dismisses the surfaced error.
// @Summary Dismiss Error
// @Tags players
// @Success 204
// @Router /players/error [delete]
func (h *Handler) HandleClearError(c *fiber.Ctx) error {
	if err := h.service.ClearError(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRegisterToken registers a push token for a user.
// @Summary Register Push Token
// @Tags players
// @Accept json
// @Produce json
// @Param token body models.FCMToken true "Token"
// @Success 204
// @Failure 400 {object} map[string]string "Invalid token"
// @Failure 502 {object} map[string]string "Backend rejected the registration"
// @Router /players/fcm-token [post]
func (h *Handler) HandleRegisterToken(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var t models.FCMToken
	if err := c.BodyParser(&t); err != nil {
		return badRequest(c, errors.New("invalid request body"))
	}
	if err := h.service.RegisterToken(c.UserContext(), t); err != nil {
		return h.commandError(c, l, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parsePlayer(c *fiber.Ctx) (models.NewPlayer, error) {
	var req PlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewPlayer{}, errors.New("invalid request body")
	}
	age, err := utils.ToOptionalInt(req.Age)
	if err != nil {
		return models.NewPlayer{}, errors.New("age: " + err.Error())
	}
	return models.NewPlayer{Name: req.Name, Age: age, Email: req.Email}, nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func (h *Handler) commandError(c *fiber.Ctx, l *zap.Logger, err error) error {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, models.ErrInvalidPlayer):
		return badRequest(c, errors.New(strings.ReplaceAll(err.Error(), "\n", ": ")))
	case errors.As(err, &statusErr) && statusErr.Code == fiber.StatusNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
	case errors.Is(err, reconcile.ErrCommandFailed):
		l.Warn("Command rejected by backend", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Command failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
