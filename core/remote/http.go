package remote

import (
	"net"
	"net/http"
	"time"
)

// NewTransport returns a transport whose dial, TLS handshake and first
// response byte are each bounded by timeout.
func NewTransport(timeout time.Duration, maxIdle int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdle,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

// NewHTTPClient builds the client used for calls to the players service.
func NewHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout()
	return &http.Client{
		Transport: NewTransport(timeout, 20),
		Timeout:   timeout,
	}
}
