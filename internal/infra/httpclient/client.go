package httpclient

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/kedarnelavelli/payment-service/internal/infra/config"
)

// ErrRedirect is returned when a gateway answers with a redirect.
var ErrRedirect = errors.New("gateway redirects are not followed")

// New creates the pooled HTTP client used for payment gateway calls.
//
// Per-call deadlines come from the request context, so ResponseTimeout is
// usually left at zero. Redirects are refused: a gateway POST must reach the
// configured endpoint or fail.
func New(cfg config.HTTPClientConfig) *http.Client {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ResponseTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return ErrRedirect
		},
	}
}
