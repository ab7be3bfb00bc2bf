package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riposte-dev/riposte/metrics"
)

// maxRedirects caps redirect chains for the always and normal policies.
const maxRedirects = 10

// Executor schedules asynchronous continuation work. The zero value is
// not usable; an absent executor runs each task on a fresh goroutine.
type Executor func(task func())

// ClientConfig describes a client declaratively. Every field is
// optional: absent fields leave the corresponding net/http default
// untouched, so the zero value builds a production-usable client.
type ClientConfig struct {
	// ConnectTimeout bounds connection establishment (the dial), not the
	// whole exchange. Accepts an integer millisecond count or a duration
	// string when unmarshaled from a definitions file.
	ConnectTimeout Duration

	// CookieJar receives and replays cookies across requests
	CookieJar http.CookieJar

	// Executor runs asynchronous continuations. Absent means one fresh
	// goroutine per task.
	Executor Executor

	// FollowRedirects selects the redirect policy: never, always or
	// normal (follow except https to http downgrades)
	FollowRedirects RedirectPolicy

	// Priority is the HTTP/2 stream priority, 1 to 256. It is validated
	// and retained for transports able to honor it; the standard
	// transport exposes no client-side priority knob and ignores it.
	Priority int

	// Proxy selects a proxy per request, in the shape net/http expects.
	// Absent means the environment proxy settings.
	Proxy func(*http.Request) (*url.URL, error)

	// TLS configures certificates, roots and protocol parameters for
	// https exchanges
	TLS *tls.Config

	// Version restricts the protocol: http1.1 disables HTTP/2 upgrade,
	// http2 negotiates HTTP/2 where the server supports it
	Version Version

	// Transport replaces the transport entirely. It cannot be combined
	// with ConnectTimeout, Proxy, TLS or Version, which configure the
	// transport this package would otherwise build.
	Transport http.RoundTripper

	// Logger enables wire logging of each exchange: method, sanitized
	// URL, status, duration, correlation ID. Absent means no logging.
	Logger *zerolog.Logger

	// UserAgent is injected into requests that do not set their own
	UserAgent string

	// Collector, when set, records latency and outcome of every exchange
	Collector *metrics.Collector
}

// Validate checks the configuration without building anything.
func (cfg ClientConfig) Validate() error {
	if cfg.Priority != 0 && (cfg.Priority < 1 || cfg.Priority > 256) {
		return &ConfigError{
			Key:    "priority",
			Reason: fmt.Sprintf("priority %d out of range [1, 256]", cfg.Priority),
		}
	}
	if cfg.FollowRedirects != "" && !cfg.FollowRedirects.Valid() {
		return &ConfigError{
			Key:    "follow-redirects",
			Reason: fmt.Sprintf("unknown redirect policy %q (want never, always or normal)", cfg.FollowRedirects),
		}
	}
	if cfg.Version != "" && !cfg.Version.Valid() {
		return &ConfigError{
			Key:    "version",
			Reason: fmt.Sprintf("unknown HTTP version %q (want http1.1 or http2)", cfg.Version),
		}
	}
	if cfg.Transport != nil && cfg.usesBuiltTransport() {
		return &ConfigError{
			Key:    "transport",
			Reason: "custom Transport cannot be combined with ConnectTimeout, Proxy, TLS or Version",
		}
	}
	return nil
}

// usesBuiltTransport reports whether any field would require this
// package to build its own transport.
func (cfg ClientConfig) usesBuiltTransport() bool {
	return cfg.ConnectTimeout != 0 || cfg.Proxy != nil || cfg.TLS != nil || cfg.Version != ""
}

// Client is an immutable HTTP client. It is safe for unlimited
// concurrent reuse; concurrent sends on one Client are unordered.
type Client struct {
	httpClient *http.Client
	executor   Executor
	version    Version
	priority   int
	collector  *metrics.Collector
}

// BuildClient builds a Client from a configuration. Each present field
// is applied independently; an empty configuration is valid and builds
// a client with net/http defaults. Only enum and priority validation
// can fail.
func BuildClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := cfg.Transport
	if transport == nil {
		transport = buildTransport(cfg)
	}
	if cfg.Logger != nil || cfg.UserAgent != "" {
		transport = newLoggingTransport(transport, cfg.Logger, cfg.UserAgent)
	}

	httpClient := &http.Client{
		Transport:     transport,
		Jar:           cfg.CookieJar,
		CheckRedirect: checkRedirect(cfg.FollowRedirects),
	}

	executor := cfg.Executor
	if executor == nil {
		executor = func(task func()) { go task() }
	}

	return &Client{
		httpClient: httpClient,
		executor:   executor,
		version:    cfg.Version,
		priority:   cfg.Priority,
		collector:  cfg.Collector,
	}, nil
}

// NewClient is an alias for BuildClient.
func NewClient(cfg ClientConfig) (*Client, error) {
	return BuildClient(cfg)
}

// Priority returns the configured HTTP/2 stream priority, or 0 when
// none was set.
func (c *Client) Priority() int {
	return c.priority
}

// Version returns the configured protocol preference, or "" when none
// was set.
func (c *Client) Version() Version {
	return c.version
}

// buildTransport assembles a transport for the transport-level fields.
// When none of them is present it returns nil, leaving the net/http
// default transport in charge.
func buildTransport(cfg ClientConfig) http.RoundTripper {
	if !cfg.usesBuiltTransport() {
		return nil
	}

	dialTimeout := 30 * time.Second
	if cfg.ConnectTimeout > 0 {
		dialTimeout = cfg.ConnectTimeout.Std()
	}

	proxy := cfg.Proxy
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}

	transport := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       cfg.TLS,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.Version == HTTP1 {
		// An empty (non-nil) TLSNextProto map disables the HTTP/2 upgrade.
		transport.ForceAttemptHTTP2 = false
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	return transport
}

// checkRedirect maps a redirect policy onto net/http's CheckRedirect
// hook. An absent policy returns nil, keeping the net/http default.
func checkRedirect(policy RedirectPolicy) func(*http.Request, []*http.Request) error {
	switch policy {
	case RedirectNever:
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case RedirectAlways:
		return func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	case RedirectNormal:
		return func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			previous := via[len(via)-1]
			if previous.URL.Scheme == "https" && req.URL.Scheme == "http" {
				return fmt.Errorf("refusing redirect downgrade from %s to %s", previous.URL, req.URL)
			}
			return nil
		}
	default:
		return nil
	}
}

// cancelBody ties a request-timeout cancel function to the response
// body, so the timeout stays armed while the body is being read and is
// released when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	b.cancel()
	return b.ReadCloser.Close()
}

// exchange executes one request and returns the raw response with
// detailed timing information. The request-level timeout, when present,
// is enforced through a context deadline that covers both the exchange
// and the subsequent body read.
func (c *Client) exchange(ctx context.Context, req *Request) (*http.Response, TimingInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	cancel := context.CancelFunc(func() {})
	if req.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.timeout)
	}

	// Create a trace to capture detailed timing information
	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsEnd := time.Now()
			timing.DNSLookupTime = dnsEnd.Sub(dnsStart)
			dnsDone = true
			lastPhaseEnd = dnsEnd
		},
		ConnectStart: func(network, addr string) {
			if dnsDone {
				connectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				connectEnd := time.Now()
				timing.TCPConnectTime = connectEnd.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = connectEnd
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsHandshakeStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				tlsHandshakeEnd := time.Now()
				timing.TLSHandshakeTime = tlsHandshakeEnd.Sub(tlsHandshakeStart)
				lastPhaseEnd = tlsHandshakeEnd
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	httpReq := req.raw.Clone(httptrace.WithClientTrace(ctx, trace))

	// Rebuild the body from its snapshot so a built Request can be sent
	// more than once. Stream bodies have no snapshot and stay single-shot.
	if req.raw.GetBody != nil {
		body, err := req.raw.GetBody()
		if err != nil {
			cancel()
			return nil, timing, &TransportError{Op: "send", URL: req.URL(), Cause: err}
		}
		httpReq.Body = body
	}

	httpResp, err := c.httpClient.Do(httpReq)
	timing.TotalTime = time.Since(timing.StartTime)

	if err != nil {
		cancel()
		err = classifySendError(err, req.URL(), req.timeout)
		c.record(0, timing.TotalTime, err)
		return nil, timing, err
	}

	// Keep the timeout armed until the body is consumed
	httpResp.Body = &cancelBody{ReadCloser: httpResp.Body, cancel: cancel}

	c.record(httpResp.StatusCode, timing.TotalTime, nil)

	return httpResp, timing, nil
}

func (c *Client) record(status int, latency time.Duration, err error) {
	if c.collector == nil {
		return
	}
	c.collector.Record(metrics.Result{
		Status:  status,
		Latency: latency,
		Err:     err,
	})
}

// Default client, built lazily with zero configuration on first use.
var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// Default returns the process-wide client, building it with zero
// configuration on first use. It never returns nil.
func Default() *Client {
	defaultMu.RLock()
	c := defaultClient
	defaultMu.RUnlock()
	if c != nil {
		return c
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		// Zero configuration cannot fail validation.
		defaultClient, _ = BuildClient(ClientConfig{})
	}
	return defaultClient
}

// SetDefault replaces the process-wide client. Passing nil restores
// lazy zero-configuration construction on the next Default call. Meant
// for tests and process setup, not per-request overrides; those go
// through SendOptions.Client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}
