package http

import (
	"fmt"
	"net/http"
	"time"
)

// RequestConfig describes a request declaratively. URI is the only
// required field; everything else is optional.
type RequestConfig struct {
	// URI is the absolute request URI. Required.
	URI string

	// Method is the HTTP method. Any token is accepted and upper-cased;
	// empty means GET.
	Method string

	// Headers maps header names to their values in send order. A name
	// with several values is expanded into repeated header entries.
	Headers Headers

	// Timeout bounds the whole exchange, from dialing through reading
	// the body. Accepts an integer millisecond count or a duration
	// string when unmarshaled from a definitions file. Zero means no
	// request-level timeout.
	Timeout Duration

	// Version records a per-request protocol preference. It is validated
	// and retained; the transport negotiates the actual version per
	// connection.
	Version Version

	// ExpectContinue controls the Expect: 100-continue handshake. nil
	// leaves the request untouched; true sets the header; false removes
	// it even when Headers carried one.
	ExpectContinue *bool

	// Body is the request payload. The zero value means no body.
	Body Body
}

// Request is an immutable built request. Text and bytes bodies are
// snapshotted, so the same Request can be sent any number of times;
// stream bodies are single-shot.
type Request struct {
	raw     *http.Request
	method  string
	uri     string
	timeout time.Duration
	version Version
}

// BuildRequest builds a Request from a configuration. A missing or
// unparsable URI and an unknown version fail with a *ConfigError before
// any network activity.
func BuildRequest(cfg RequestConfig) (*Request, error) {
	if cfg.URI == "" {
		return nil, &ConfigError{Key: "uri", Reason: "missing URI"}
	}
	if cfg.Version != "" && !cfg.Version.Valid() {
		return nil, &ConfigError{
			Key:    "version",
			Reason: fmt.Sprintf("unknown HTTP version %q (want http1.1 or http2)", cfg.Version),
		}
	}

	method := NormalizeMethod(cfg.Method)

	raw, err := http.NewRequest(method, cfg.URI, cfg.Body.source())
	if err != nil {
		return nil, &ConfigError{Key: "uri", Reason: fmt.Sprintf("invalid request URI %q", cfg.URI), Cause: err}
	}

	for name, values := range cfg.Headers {
		for _, value := range values {
			raw.Header.Add(name, value)
		}
	}

	// net/http takes the Host from the URL unless set explicitly on the
	// request itself.
	if host := cfg.Headers.Get("host"); host != "" {
		raw.Host = host
	}

	if cfg.ExpectContinue != nil {
		if *cfg.ExpectContinue {
			raw.Header.Set("Expect", "100-continue")
		} else {
			raw.Header.Del("Expect")
		}
	}

	return &Request{
		raw:     raw,
		method:  method,
		uri:     cfg.URI,
		timeout: cfg.Timeout.Std(),
		version: cfg.Version,
	}, nil
}

// WrapRequest adopts a caller-built net/http request, bypassing the
// builder. The caller must not mutate req afterwards.
func WrapRequest(req *http.Request) *Request {
	uri := ""
	if req.URL != nil {
		uri = req.URL.String()
	}
	return &Request{
		raw:    req,
		method: req.Method,
		uri:    uri,
	}
}

// Raw returns the underlying net/http request. Callers must treat it
// as read-only.
func (r *Request) Raw() *http.Request {
	return r.raw
}

// Method returns the normalized HTTP method.
func (r *Request) Method() string {
	return r.method
}

// URL returns the request URI as given at build time.
func (r *Request) URL() string {
	return r.uri
}

// Timeout returns the request-level timeout, or 0 when none was set.
func (r *Request) Timeout() time.Duration {
	return r.timeout
}

// Version returns the per-request protocol preference, or "" when none
// was set.
func (r *Request) Version() Version {
	return r.version
}
