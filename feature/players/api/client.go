package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/feature/players/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// defaultListTimeout bounds a shared list request when the http.Client has
// no timeout of its own.
const defaultListTimeout = 30 * time.Second

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the players REST API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
	group  singleflight.Group
}

// NewClient creates a REST client rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: u, http: httpClient, logger: logger}, nil
}

// Fetch loads the full roster for the reconciliation engine.
func (c *Client) Fetch(ctx context.Context) ([]models.Player, error) {
	players, err := c.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrSnapshotFetchFailed, err)
	}
	return players, nil
}

// ListPlayers returns every player. Concurrent calls share one request, which
// outlives the cancellation of any single caller.
func (c *Client) ListPlayers(ctx context.Context) ([]models.Player, error) {
	ch := c.group.DoChan("players", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.listTimeout())
		defer cancel()

		var players []models.Player
		if err := c.do(shared, http.MethodGet, "/players", nil, &players); err != nil {
			return nil, err
		}
		if players == nil {
			players = []models.Player{}
		}
		return players, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Shared in-flight players request")
		}
		players := res.Val.([]models.Player)
		return append([]models.Player(nil), players...), nil
	}
}

func (c *Client) listTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return defaultListTimeout
}

// CreatePlayer asks the backend to create a player and returns its echo.
func (c *Client) CreatePlayer(ctx context.Context, p models.NewPlayer) (models.Player, error) {
	var created models.Player
	if err := c.do(ctx, http.MethodPost, "/players", p, &created); err != nil {
		return models.Player{}, err
	}
	return created, nil
}

// UpdatePlayer replaces the fields of player id.
func (c *Client) UpdatePlayer(ctx context.Context, id int, p models.NewPlayer) error {
	return c.do(ctx, http.MethodPut, "/players/"+strconv.Itoa(id), p, nil)
}

// DeletePlayer removes player id.
func (c *Client) DeletePlayer(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/players/"+strconv.Itoa(id), nil, nil)
}

// RegisterFCMToken stores a push token for a user.
func (c *Client) RegisterFCMToken(ctx context.Context, t models.FCMToken) error {
	return c.do(ctx, http.MethodPost, "/register_fcm_token", t, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
