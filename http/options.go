package http

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RedirectPolicy controls how a client reacts to 3xx responses.
type RedirectPolicy string

const (
	// RedirectNever disables redirect following entirely.
	RedirectNever RedirectPolicy = "never"

	// RedirectAlways follows every redirect, including downgrades from
	// https to http.
	RedirectAlways RedirectPolicy = "always"

	// RedirectNormal follows redirects except https to http downgrades.
	RedirectNormal RedirectPolicy = "normal"
)

// ParseRedirectPolicy maps a policy name onto a RedirectPolicy. Matching
// is case-insensitive. Unknown names are a configuration error.
func ParseRedirectPolicy(s string) (RedirectPolicy, error) {
	switch RedirectPolicy(strings.ToLower(s)) {
	case RedirectNever:
		return RedirectNever, nil
	case RedirectAlways:
		return RedirectAlways, nil
	case RedirectNormal:
		return RedirectNormal, nil
	default:
		return "", &ConfigError{
			Key:    "follow-redirects",
			Reason: fmt.Sprintf("unknown redirect policy %q (want never, always or normal)", s),
		}
	}
}

// Valid reports whether p is one of the defined policies.
func (p RedirectPolicy) Valid() bool {
	switch p {
	case RedirectNever, RedirectAlways, RedirectNormal:
		return true
	}
	return false
}

// Version selects the HTTP protocol version a client prefers.
type Version string

const (
	// HTTP1 restricts the client to HTTP/1.1.
	HTTP1 Version = "http1.1"

	// HTTP2 lets the client negotiate HTTP/2 where the server supports it.
	HTTP2 Version = "http2"
)

// ParseVersion maps a version name onto a Version. Matching is
// case-insensitive. Unknown names are a configuration error.
func ParseVersion(s string) (Version, error) {
	switch Version(strings.ToLower(s)) {
	case HTTP1:
		return HTTP1, nil
	case HTTP2:
		return HTTP2, nil
	default:
		return "", &ConfigError{
			Key:    "version",
			Reason: fmt.Sprintf("unknown HTTP version %q (want http1.1 or http2)", s),
		}
	}
}

// Valid reports whether v is one of the defined versions.
func (v Version) Valid() bool {
	switch v {
	case HTTP1, HTTP2:
		return true
	}
	return false
}

// BodyMode selects the representation a response body is decoded into.
type BodyMode string

const (
	// ModeText decodes the body into a string. This is the default.
	ModeText BodyMode = "string"

	// ModeBytes keeps the body as a byte slice.
	ModeBytes BodyMode = "bytes"

	// ModeStream hands the body back as an unconsumed reader. The caller
	// owns closing it.
	ModeStream BodyMode = "stream"
)

// ParseBodyMode maps a mode name onto a BodyMode. Matching is
// case-insensitive. Unknown names are a configuration error.
func ParseBodyMode(s string) (BodyMode, error) {
	switch strings.ToLower(s) {
	case "", "string", "text":
		return ModeText, nil
	case "bytes", "byte-array":
		return ModeBytes, nil
	case "stream", "input-stream":
		return ModeStream, nil
	default:
		return "", &ConfigError{
			Key:    "as",
			Reason: fmt.Sprintf("unknown body mode %q (want string, bytes or stream)", s),
		}
	}
}

// Valid reports whether m is one of the defined modes.
func (m BodyMode) Valid() bool {
	switch m {
	case ModeText, ModeBytes, ModeStream:
		return true
	}
	return false
}

// NormalizeMethod upper-cases an HTTP method name. The method set is
// open: any non-empty token passes through, so extension methods such as
// PATCH or PROPFIND work without this package knowing about them. An
// empty method defaults to GET.
func NormalizeMethod(method string) string {
	if method == "" {
		return "GET"
	}
	return strings.ToUpper(method)
}

// Duration is a time.Duration that unmarshals from either a bare number,
// read as milliseconds, or a string in Go duration syntax ("2.5s",
// "150ms"). It marshals back to the string form.
type Duration time.Duration

// Millis builds a Duration from a millisecond count.
func Millis(ms int64) Duration {
	return Duration(time.Duration(ms) * time.Millisecond)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the Go duration syntax for d.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Millis(int64(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return &ConfigError{Key: "duration", Reason: fmt.Sprintf("invalid duration %q", value), Cause: err}
		}
		*d = Duration(parsed)
		return nil
	default:
		return &ConfigError{Key: "duration", Reason: fmt.Sprintf("invalid duration type %T", v)}
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch value := v.(type) {
	case int:
		*d = Millis(int64(value))
		return nil
	case float64:
		*d = Millis(int64(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return &ConfigError{Key: "duration", Reason: fmt.Sprintf("invalid duration %q", value), Cause: err}
		}
		*d = Duration(parsed)
		return nil
	default:
		return &ConfigError{Key: "duration", Reason: fmt.Sprintf("invalid duration type %T", v)}
	}
}
