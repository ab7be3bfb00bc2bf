package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// loggingTransport wraps a RoundTripper to add wire logging with
// sanitized URLs, User-Agent injection and a per-exchange correlation
// ID. A nil logger disables logging while keeping the User-Agent
// injection.
type loggingTransport struct {
	base      http.RoundTripper
	logger    *zerolog.Logger
	userAgent string
}

func newLoggingTransport(base http.RoundTripper, logger *zerolog.Logger, userAgent string) *loggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{
		base:      base,
		logger:    logger,
		userAgent: userAgent,
	}
}

// RoundTrip implements http.RoundTripper. Each exchange is logged with
// method, sanitized URL, status or error, duration and a correlation ID
// that is also sent to the server as X-Correlation-ID.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger == nil {
		return t.base.RoundTrip(req)
	}

	correlationID := uuid.NewString()
	req.Header.Set("X-Correlation-ID", correlationID)

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	logURL := sanitizeURL(req.URL)

	if err != nil {
		t.logger.Warn().
			Str("method", req.Method).
			Str("url", logURL).
			Str("correlation_id", correlationID).
			Dur("duration", duration).
			Err(err).
			Msg("http request failed")
		return resp, err
	}

	evt := t.logger.Debug()
	if resp.StatusCode >= 400 {
		evt = t.logger.Warn()
	}
	evt.
		Str("method", req.Method).
		Str("url", logURL).
		Str("correlation_id", correlationID).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("http request")

	return resp, nil
}

// sensitiveParams are query parameter names redacted from logged URLs,
// matched case-insensitively as substrings.
var sensitiveParams = []string{
	"api_key",
	"apikey",
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
}

// sanitizeURL renders a URL for logging with sensitive query parameter
// values replaced by [REDACTED].
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	changed := false
	for name := range q {
		if sensitiveParam(name) {
			q.Set(name, "[REDACTED]")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}

	safe := *u
	safe.RawQuery = q.Encode()
	return safe.String()
}

func sensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
