package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ConfigError represents an invalid or unrecognized configuration value.
// It is returned at build time, before any network activity takes place.
type ConfigError struct {
	// Key is the configuration field that failed (e.g., "uri", "follow-redirects")
	Key string

	// Reason explains what is wrong with the value
	Reason string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TransportError represents a network-level failure surfaced by the
// underlying transport: connection refused, DNS failure, TLS failure,
// protocol violation, or a failure while draining the response body.
type TransportError struct {
	// Op describes the failing operation (e.g., "send", "read body")
	Op string

	// URL is the request URL, if known
	URL string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Cause)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a request that exceeded its configured timeout.
// It is a distinct class from TransportError so callers can tell the two
// apart without string matching.
type TimeoutError struct {
	// URL is the request URL, if known
	URL string

	// Timeout is the configured request timeout that elapsed
	Timeout time.Duration

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request to %s timed out after %v", e.URL, e.Timeout)
	}
	return fmt.Sprintf("request to %s timed out", e.URL)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// HandlerError represents a failure raised inside a caller-supplied
// continuation stage of an asynchronous send. Stage is one of "callback"
// or "error-handler".
type HandlerError struct {
	// Stage names the continuation stage that failed
	Stage string

	// Cause is the error returned by the handler
	Cause error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsHandler reports whether err is (or wraps) a HandlerError.
func IsHandler(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// classifySendError converts an error returned by the transport into the
// layer's taxonomy: timeouts become TimeoutError, everything else becomes
// TransportError. Context cancellation by the caller passes through
// untouched so errors.Is(err, context.Canceled) keeps working.
func classifySendError(err error, reqURL string, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: reqURL, Timeout: timeout, Cause: err}
	}

	// net/http wraps transport failures in *url.Error; a timeout surfaces
	// through the net.Error interface.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: reqURL, Timeout: timeout, Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Op: urlErr.Op, URL: reqURL, Cause: urlErr.Err}
	}

	return &TransportError{Op: "send", URL: reqURL, Cause: err}
}
