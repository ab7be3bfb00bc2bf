package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TimingInfo stores detailed timing information for an HTTP exchange.
// All durations represent the time spent in each phase of the request.
type TimingInfo struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte (TTFB) is the time from request start to receiving the first byte
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the total time from request start to completion
	TotalTime time.Duration
}

// HeaderValue holds the values of one header in arrival order. It
// serializes to a bare string when it holds exactly one value and to a
// list otherwise, and accepts either form back, so a round trip through
// JSON or YAML reproduces the same document.
type HeaderValue []string

// MarshalJSON implements json.Marshaler.
func (v HeaderValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *HeaderValue) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*v = HeaderValue{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*v = HeaderValue(many)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v HeaderValue) MarshalYAML() (interface{}, error) {
	if len(v) == 1 {
		return v[0], nil
	}
	return []string(v), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *HeaderValue) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*v = HeaderValue{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*v = HeaderValue(many)
	return nil
}

// Headers is the canonical header map: lower-case names, values in
// arrival order. A name that arrived once yields a one-element value
// that serializes as a scalar.
type Headers map[string]HeaderValue

// NormalizeHeaders converts a net/http header map into canonical form.
// Names are lower-cased; the per-name value order is preserved.
func NormalizeHeaders(h http.Header) Headers {
	if h == nil {
		return Headers{}
	}
	out := make(Headers, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		out[key] = append(out[key], values...)
	}
	return out
}

// Get returns the first value recorded for name, or "" when absent.
func (h Headers) Get(name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Values returns all values recorded for name in arrival order. Lookup
// tries the canonical lower-case name first, then falls back to a
// case-insensitive scan so hand-built maps with natural-case names
// still resolve.
func (h Headers) Values(name string) []string {
	if values, ok := h[strings.ToLower(name)]; ok {
		return values
	}
	for key, values := range h {
		if strings.EqualFold(key, name) {
			return values
		}
	}
	return nil
}

// Add appends a value to the given name.
func (h Headers) Add(name, value string) {
	key := strings.ToLower(name)
	h[key] = append(h[key], value)
}

// Set replaces all values recorded for the given name.
func (h Headers) Set(name, value string) {
	h[strings.ToLower(name)] = HeaderValue{value}
}

// Response is the canonical form of an HTTP response. Exactly one of
// Body, BodyBytes and BodyStream carries the payload, selected by Mode.
type Response struct {
	// Status is the HTTP status code (e.g., 200, 404, 500)
	Status int

	// Headers contains the response headers in canonical form
	Headers Headers

	// Mode records which body representation was requested
	Mode BodyMode

	// Body is the response body when Mode is ModeText
	Body string

	// BodyBytes is the response body when Mode is ModeBytes
	BodyBytes []byte

	// BodyStream is the unconsumed response body when Mode is ModeStream.
	// The caller owns closing it.
	BodyStream io.ReadCloser

	// URI is the final request URI, after any redirects
	URI string

	// Version is the protocol version the exchange was carried over
	Version Version

	// Timing contains detailed timing information
	Timing TimingInfo

	// Internal fields for caching
	raw     *http.Response
	rawBody []byte
	parsed  bool
}

// NormalizeResponse converts a net/http response into canonical form.
// In text and bytes modes the body is drained, closed and replaced with
// a replayable reader, so normalizing the same raw response again yields
// an equal result. In stream mode the body is handed over unconsumed.
func NormalizeResponse(raw *http.Response, mode BodyMode) (*Response, error) {
	if raw == nil {
		return nil, &TransportError{Op: "normalize", Cause: fmt.Errorf("nil response")}
	}
	if !mode.Valid() {
		mode = ModeText
	}

	resp := &Response{
		Status:  raw.StatusCode,
		Headers: NormalizeHeaders(raw.Header),
		Mode:    mode,
		Version: versionFromProto(raw.Proto),
		raw:     raw,
	}
	if raw.Request != nil && raw.Request.URL != nil {
		resp.URI = raw.Request.URL.String()
	}

	switch mode {
	case ModeStream:
		resp.BodyStream = raw.Body
	default:
		defer raw.Body.Close()
		data, err := io.ReadAll(raw.Body)
		if err != nil {
			return nil, &TransportError{Op: "read body", URL: resp.URI, Cause: err}
		}
		raw.Body = io.NopCloser(bytes.NewReader(data))
		if mode == ModeBytes {
			resp.BodyBytes = data
		} else {
			resp.Body = string(data)
		}
		resp.rawBody = data
		resp.parsed = true
	}

	return resp, nil
}

func versionFromProto(proto string) Version {
	if strings.HasPrefix(proto, "HTTP/2") {
		return HTTP2
	}
	return HTTP1
}

// Raw returns the underlying net/http response, or nil when the
// Response was not produced from one.
func (r *Response) Raw() *http.Response {
	return r.raw
}

// GetBody returns the response body as a byte array. Stream bodies are
// read and cached on first call, so this method can be called multiple
// times regardless of mode.
func (r *Response) GetBody() ([]byte, error) {
	if r.parsed {
		return r.rawBody, nil
	}

	if r.BodyStream == nil {
		// Hand-built responses carry their payload in the mode fields
		// rather than the normalizer's cache.
		if len(r.BodyBytes) > 0 {
			r.rawBody = r.BodyBytes
		} else if r.Body != "" {
			r.rawBody = []byte(r.Body)
		}
		r.parsed = true
		return r.rawBody, nil
	}

	defer r.BodyStream.Close()
	body, err := io.ReadAll(r.BodyStream)
	if err != nil {
		return nil, &TransportError{Op: "read body", URL: r.URI, Cause: err}
	}

	r.rawBody = body
	r.parsed = true

	return body, nil
}

// GetBodyAsString returns the response body as a string.
func (r *Response) GetBodyAsString() (string, error) {
	body, err := r.GetBody()
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetBodyAsJSON unmarshals the response body into the provided interface.
//
// Example:
//
//	var users []User
//	if err := resp.GetBodyAsJSON(&users); err != nil {
//	    log.Fatal(err)
//	}
func (r *Response) GetBodyAsJSON(v interface{}) error {
	body, err := r.GetBody()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// GetHeader returns the first value of the specified header.
// Returns an empty string if the header is not present.
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsRedirect returns true if the response status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// IsClientError returns true if the response status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

// IsServerError returns true if the response status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.Status >= 500 && r.Status < 600
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.IsClientError() || r.IsServerError()
}

// GetTotalTimeMillis returns the total exchange time in milliseconds.
func (r *Response) GetTotalTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}

// GetTimeToFirstByteMillis returns the time to first byte in milliseconds.
func (r *Response) GetTimeToFirstByteMillis() int64 {
	return r.Timing.TimeToFirstByte.Milliseconds()
}
