package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/metrics"
	"storefront-orders/internal/core/proxy"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs and times every call to an upstream API (payment gateway, courier).
type LoggingRoundTripper struct {
	// Upstream names the API in logs and metrics.
	Upstream string
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details. URLs are logged without query strings.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	log := logger.Get().With(zap.String("upstream", lrt.Upstream))

	log.Debug("Upstream request started",
		zap.String("method", req.Method),
		zap.String("url", target),
	)

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveUpstream(lrt.Upstream, "error", duration)
		log.Error("Upstream request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ObserveUpstream(lrt.Upstream, strconv.Itoa(resp.StatusCode), duration)
	log.Debug("Upstream request completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client for one upstream API with logging and latency metrics,
// routed through the proxy when one is configured.
func NewClient(upstream string, timeout time.Duration, settings proxy.Settings) *http.Client {
	base := http.DefaultTransport
	if u := settings.URL(); u != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = http.ProxyURL(u)
		base = transport
		logger.Get().Info("Upstream client routed through proxy",
			zap.String("upstream", upstream),
			zap.String("proxy", settings.HostPort()),
		)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Upstream: upstream,
			Proxied:  base,
		},
		Timeout: timeout,
	}
}
