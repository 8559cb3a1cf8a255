package server

import "strings"

// Config holds configuration for the HTTP servers.
type Config struct {
	// Port is the port where the presentation API will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the presentation API.
	// An empty key disables authentication.
	ApiKey string `mapstructure:"api_key" default:""`
	// BackendPort is the port of the reference players backend.
	BackendPort string `mapstructure:"backend_port" default:"8081"`
}

// Address returns the listen address of the presentation API.
func (c Config) Address() string {
	return listenAddress(c.Port)
}

// BackendAddress returns the listen address of the reference backend.
func (c Config) BackendAddress() string {
	return listenAddress(c.BackendPort)
}

func listenAddress(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// AuthEnabled reports whether the presentation API requires an API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
