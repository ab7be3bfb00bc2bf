package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RequestSource is anything Send can resolve into a built request: a
// RequestConfig, a URL, or a pre-built *Request. The set is closed.
type RequestSource interface {
	request() (*Request, error)
}

// URL is a bare request target usable wherever a RequestSource is
// expected. It stands for RequestConfig{URI: string(u)} and therefore
// sends a GET.
type URL string

func (u URL) request() (*Request, error) {
	return BuildRequest(RequestConfig{URI: string(u)})
}

func (cfg RequestConfig) request() (*Request, error) {
	return BuildRequest(cfg)
}

func (r *Request) request() (*Request, error) {
	return r, nil
}

// SendOptions adjusts how a send handles the response. A nil *SendOptions
// (and the zero value) selects text mode on the process-wide default
// client.
type SendOptions struct {
	// Mode selects the response body representation. Empty means ModeText.
	Mode BodyMode

	// Client overrides the process-wide default client for this send
	Client *Client

	// Raw asks for the transport response unconsumed. Send leaves the
	// body unread behind Response.Raw(); SendAsync resolves the future
	// directly to the *http.Response; SendRaw returns it typed.
	Raw bool
}

// resolveOptions fills defaults and validates the body mode. Raw sends
// never drain the body, so Raw folds into stream mode.
func resolveOptions(opts *SendOptions) (SendOptions, error) {
	if opts == nil {
		return SendOptions{Mode: ModeText}, nil
	}
	resolved := *opts
	if resolved.Mode == "" {
		resolved.Mode = ModeText
	}
	if !resolved.Mode.Valid() {
		return SendOptions{}, &ConfigError{
			Key:    "as",
			Reason: fmt.Sprintf("unknown body mode %q (want string, bytes or stream)", resolved.Mode),
		}
	}
	if resolved.Raw {
		resolved.Mode = ModeStream
	}
	return resolved, nil
}

func (opts SendOptions) client() *Client {
	if opts.Client != nil {
		return opts.Client
	}
	return Default()
}

// Send executes a request synchronously and returns its canonical
// response. The request is resolved from src, the client from
// opts.Client (default: the process-wide client). Timeouts surface as
// *TimeoutError, network failures as *TransportError, both immediately
// and without retries.
//
// Example:
//
//	resp, err := http.Send(ctx, http.RequestConfig{
//	    URI:    "https://api.example.com/users",
//	    Method: "post",
//	    Body:   http.Text(`{"name":"ada"}`),
//	}, nil)
func Send(ctx context.Context, src RequestSource, opts *SendOptions) (*Response, error) {
	resolved, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	req, err := src.request()
	if err != nil {
		return nil, err
	}
	return resolved.client().send(ctx, req, resolved)
}

// SendRaw executes a request synchronously and returns the transport
// response unmodified. The body is unconsumed; the caller owns closing
// it. opts.Mode and opts.Raw are irrelevant here.
func SendRaw(ctx context.Context, src RequestSource, opts *SendOptions) (*http.Response, error) {
	resolved, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	req, err := src.request()
	if err != nil {
		return nil, err
	}
	raw, _, err := resolved.client().exchange(ctx, req)
	return raw, err
}

// SendAsync executes a request without blocking the caller and returns
// a Future for the outcome. After the response arrives the stages run
// in fixed order, each at most once, on the client's executor: the
// response is normalized (unless opts.Raw), callback replaces the
// value, and onError observes any prior failure and may replace it with
// a value. callback and onError may be nil.
//
// Configuration failures resolve the future immediately, before any
// network activity; neither stage runs for them.
func SendAsync(ctx context.Context, src RequestSource, opts *SendOptions, callback Callback, onError ErrorHandler) *Future {
	future := newFuture()

	resolved, err := resolveOptions(opts)
	if err != nil {
		future.resolve(nil, err)
		return future
	}
	req, err := src.request()
	if err != nil {
		future.resolve(nil, err)
		return future
	}

	c := resolved.client()
	c.executor(func() {
		future.resolve(c.pipeline(ctx, req, resolved, callback, onError))
	})
	return future
}

// Send executes src on this client. Equivalent to the package-level
// Send with opts.Client set to c.
func (c *Client) Send(ctx context.Context, src RequestSource, opts *SendOptions) (*Response, error) {
	return Send(ctx, src, withClient(opts, c))
}

// SendAsync executes src on this client without blocking the caller.
// Equivalent to the package-level SendAsync with opts.Client set to c.
func (c *Client) SendAsync(ctx context.Context, src RequestSource, opts *SendOptions, callback Callback, onError ErrorHandler) *Future {
	return SendAsync(ctx, src, withClient(opts, c), callback, onError)
}

func withClient(opts *SendOptions, c *Client) *SendOptions {
	out := SendOptions{}
	if opts != nil {
		out = *opts
	}
	out.Client = c
	return &out
}

// send runs the blocking exchange and normalization for one request.
func (c *Client) send(ctx context.Context, req *Request, opts SendOptions) (*Response, error) {
	raw, timing, err := c.exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	transferStart := time.Now()
	resp, err := NormalizeResponse(raw, opts.Mode)
	if err != nil {
		return nil, readErrorFor(err, req)
	}
	if opts.Mode != ModeStream {
		timing.ContentTransferTime = time.Since(transferStart)
	}
	resp.Timing = timing

	return resp, nil
}

// readErrorFor reclassifies a body-read failure: the request deadline
// stays armed while the body is drained, so an expiry there is a
// timeout, not a plain transport failure.
func readErrorFor(err error, req *Request) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: req.URL(), Timeout: req.Timeout(), Cause: err}
	}
	return err
}

// pipeline produces the value an asynchronous send resolves to:
// exchange, normalize (unless raw), callback, error handler, in that
// order.
func (c *Client) pipeline(ctx context.Context, req *Request, opts SendOptions, callback Callback, onError ErrorHandler) (interface{}, error) {
	var value interface{}
	var err error

	if opts.Raw {
		var raw *http.Response
		raw, _, err = c.exchange(ctx, req)
		if err == nil {
			value = raw
		}
	} else {
		var resp *Response
		resp, err = c.send(ctx, req, opts)
		if err == nil {
			value = resp
		}
	}

	if err == nil && callback != nil {
		value, err = runStage("callback", func() (interface{}, error) {
			return callback(value)
		})
	}

	if err != nil && onError != nil {
		recovered, herr := runStage("error-handler", func() (interface{}, error) {
			return onError(err)
		})
		if herr != nil {
			err = herr
		} else {
			value, err = recovered, nil
		}
	}

	if err != nil {
		return nil, err
	}
	return value, nil
}

// runStage runs one caller-supplied continuation, converting returned
// errors and panics into *HandlerError.
func runStage(stage string, fn func() (interface{}, error)) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &HandlerError{Stage: stage, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	value, err = fn()
	if err != nil {
		return nil, &HandlerError{Stage: stage, Cause: err}
	}
	return value, nil
}

// Get sends a GET request to uri. cfg supplies the remaining request
// fields (its URI and Method are overwritten); opts adjusts response
// handling. Both may be nil.
func Get(ctx context.Context, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	return sendVerb(ctx, "GET", uri, cfg, opts)
}

// Head sends a HEAD request to uri. See Get for the parameter
// conventions.
func Head(ctx context.Context, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	return sendVerb(ctx, "HEAD", uri, cfg, opts)
}

// Post sends a POST request to uri. The body travels in cfg. See Get
// for the parameter conventions.
func Post(ctx context.Context, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	return sendVerb(ctx, "POST", uri, cfg, opts)
}

// Put sends a PUT request to uri. The body travels in cfg. See Get for
// the parameter conventions.
func Put(ctx context.Context, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	return sendVerb(ctx, "PUT", uri, cfg, opts)
}

// Delete sends a DELETE request to uri. See Get for the parameter
// conventions.
func Delete(ctx context.Context, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	return sendVerb(ctx, "DELETE", uri, cfg, opts)
}

func sendVerb(ctx context.Context, method, uri string, cfg *RequestConfig, opts *SendOptions) (*Response, error) {
	merged := RequestConfig{}
	if cfg != nil {
		merged = *cfg
	}
	merged.Method = method
	merged.URI = uri
	return Send(ctx, merged, opts)
}
