package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/feature/players/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit = 64 << 10
	bufSize   = 64
)

// Option configures a Source.
type Option func(*Source)

// WithReconnect redials after the connection drops. Zero disables it.
func WithReconnect(interval time.Duration) Option {
	return func(s *Source) { s.reconnect = interval }
}

// WithDecodeErrorHandler is called for every frame that fails to decode.
func WithDecodeErrorHandler(fn func(error)) Option {
	return func(s *Source) { s.onDecodeError = fn }
}

// WithHeader sets extra headers on the WebSocket handshake.
func WithHeader(h http.Header) Option {
	return func(s *Source) { s.header = h }
}

// WithDialer overrides the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Source) { s.dialer = d }
}

// Source streams player events from the backend's WebSocket feed.
type Source struct {
	url           string
	dialer        *websocket.Dialer
	header        http.Header
	reconnect     time.Duration
	onDecodeError func(error)
	logger        *zap.Logger

	connects atomic.Uint64
}

// NewSource creates a live event source for the feed at url.
func NewSource(url string, logger *zap.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{
		url:           url,
		dialer:        websocket.DefaultDialer,
		logger:        logger,
		onDecodeError: func(error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connects returns how many connections have been established.
func (s *Source) Connects() uint64 {
	return s.connects.Load()
}

// Subscribe opens the feed. The returned channel closes when ctx ends, or
// when the connection drops and reconnection is disabled.
//
// Without reconnection a failed first dial is returned as an error. With it,
// dial failures are logged and retried.
func (s *Source) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	out := make(chan models.Event, bufSize)

	if s.reconnect <= 0 {
		conn, err := s.dial(ctx)
		if err != nil {
			return nil, err
		}
		go func() {
			defer close(out)
			err := s.stream(ctx, conn, out)
			s.logClosed(ctx, err)
		}()
		return out, nil
	}

	go s.run(ctx, out)
	return out, nil
}

func (s *Source) run(ctx context.Context, out chan<- models.Event) {
	defer close(out)

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("Failed to dial event feed", zap.String("url", s.url), zap.Error(err))
		} else {
			err = s.stream(ctx, conn, out)
			s.logClosed(ctx, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnect):
			s.logger.Info("Reconnecting to event feed", zap.String("url", s.url))
		}
	}
}

func (s *Source) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s: status %d: %w", s.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", s.url, err)
	}
	conn.SetReadLimit(readLimit)
	s.connects.Add(1)
	s.logger.Info("Connected to event feed", zap.String("url", s.url))
	return conn, nil
}

// stream forwards decoded events until the connection fails or ctx ends.
func (s *Source) stream(ctx context.Context, conn *websocket.Conn, out chan<- models.Event) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ev, ok, err := models.DecodeEvent(data)
		if err != nil {
			s.logger.Warn("Skipping malformed event", zap.Error(err))
			s.onDecodeError(err)
			continue
		}
		if !ok {
			s.logger.Debug("Skipping event of unknown type", zap.ByteString("payload", data))
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Source) logClosed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Warn("Event feed closed", zap.NamedError("cause", err), zap.Error(reconcile.ErrTransportClosed))
}
