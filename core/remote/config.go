package remote

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds configuration for the remote players service.
type Config struct {
	// BaseURL is the root URL of the REST API.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:8081"`
	// EventsURL is the WebSocket URL of the live event feed.
	// If empty it is derived from BaseURL.
	EventsURL string `mapstructure:"events_url" default:""`
	// TimeoutSeconds bounds connection setup and each REST call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// ReconnectSeconds is the delay before redialing a lost event feed.
	// Zero disables reconnection.
	ReconnectSeconds int `mapstructure:"reconnect_seconds" default:"3"`
	// PushToken is this client's push token. When set it is registered for
	// the email of every player created through the API.
	PushToken string `mapstructure:"push_token" default:""`
}

const eventsPath = "/ws/players"

// Timeout returns the request timeout, defaulting to 10 seconds.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReconnectInterval returns the delay between event feed redials.
func (c Config) ReconnectInterval() time.Duration {
	if c.ReconnectSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// ResolveEventsURL returns the WebSocket URL of the live event feed.
// http and https base URLs map to ws and wss respectively.
func (c Config) ResolveEventsURL() (string, error) {
	if c.EventsURL != "" {
		return c.EventsURL, nil
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + eventsPath
	return u.String(), nil
}
