package config

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riposte-dev/riposte/http"
)

func TestClientConfig(t *testing.T) {
	defs, err := Parse([]byte(yamlDefs), "defs.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cfg, err := defs.ClientConfig("api")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.ConnectTimeout.Std() != 2500*time.Millisecond {
		t.Errorf("Expected connect timeout 2.5s, got %v", cfg.ConnectTimeout.Std())
	}
	if cfg.FollowRedirects != http.RedirectNever {
		t.Errorf("Expected redirect policy never, got %q", cfg.FollowRedirects)
	}
	if cfg.Version != http.HTTP2 {
		t.Errorf("Expected version http2, got %q", cfg.Version)
	}
	if cfg.UserAgent != "riposte/1.0" {
		t.Errorf("Expected user agent riposte/1.0, got %q", cfg.UserAgent)
	}
	if cfg.Priority != 3 {
		t.Errorf("Expected priority 3, got %d", cfg.Priority)
	}
	if cfg.TLS == nil || !cfg.TLS.InsecureSkipVerify {
		t.Errorf("Expected insecure TLS config, got %+v", cfg.TLS)
	}
	if cfg.CookieJar == nil {
		t.Errorf("Expected a cookie jar to be attached")
	}

	if _, err := defs.ClientConfig("nope"); err == nil {
		t.Errorf("Expected error for unknown client, got nil")
	}
}

func TestClientConfig_Proxy(t *testing.T) {
	defs := &Definitions{
		Variables: map[string]string{"proxyHost": "proxy.internal"},
		Clients: map[string]ClientDef{
			"proxied": {Proxy: "http://{{proxyHost}}:8080"},
		},
	}

	cfg, err := defs.ClientConfig("proxied")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Proxy == nil {
		t.Fatalf("Expected proxy function to be set")
	}

	req, _ := nethttp.NewRequest("GET", "https://example.com", nil)
	proxyURL, err := cfg.Proxy(req)
	if err != nil {
		t.Fatalf("Expected no error from proxy func, got %v", err)
	}
	if proxyURL.String() != "http://proxy.internal:8080" {
		t.Errorf("Expected substituted proxy URL, got %q", proxyURL)
	}
}

func TestClientConfig_InvalidEnums(t *testing.T) {
	defs := &Definitions{
		Clients: map[string]ClientDef{
			"badPolicy":  {FollowRedirects: "sometimes"},
			"badVersion": {Version: "http3"},
		},
	}

	if _, err := defs.ClientConfig("badPolicy"); err == nil {
		t.Errorf("Expected error for invalid redirect policy, got nil")
	}
	if _, err := defs.ClientConfig("badVersion"); err == nil {
		t.Errorf("Expected error for invalid version, got nil")
	}
}

func TestBuildClient(t *testing.T) {
	defs, err := Parse([]byte(yamlDefs), "defs.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	client, err := defs.BuildClient("api")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client == nil {
		t.Fatalf("Expected a client, got nil")
	}
	if client.Priority() != 3 {
		t.Errorf("Expected priority 3, got %d", client.Priority())
	}

	if _, err := defs.BuildClient("nope"); err == nil {
		t.Errorf("Expected error for unknown client, got nil")
	}
}

func TestRequestConfig(t *testing.T) {
	defs, err := Parse([]byte(yamlDefs), "defs.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Caller vars override file variables.
	cfg, err := defs.RequestConfig("getUser", map[string]string{
		"baseUrl": "https://svc.test",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.URI != "https://svc.test/users/1?page=2" {
		t.Errorf("Expected substituted URI with query, got %q", cfg.URI)
	}
	if cfg.Method != "GET" {
		t.Errorf("Expected method GET, got %q", cfg.Method)
	}
	if got := cfg.Headers.Values("X-Tag"); len(got) != 2 || got[0] != "alpha" {
		t.Errorf("Expected X-Tag values preserved, got %v", got)
	}
	if cfg.Timeout.Std() != 1500*time.Millisecond {
		t.Errorf("Expected timeout 1.5s, got %v", cfg.Timeout.Std())
	}
	if cfg.ExpectContinue == nil || *cfg.ExpectContinue {
		t.Errorf("Expected expectContinue explicitly false")
	}
	if !cfg.Body.IsZero() {
		t.Errorf("Expected no body")
	}

	if _, err := defs.RequestConfig("nope", nil); err == nil {
		t.Errorf("Expected error for unknown request, got nil")
	}
}

func TestRequestConfig_Bodies(t *testing.T) {
	defs := &Definitions{
		Variables: map[string]string{"user": "admin"},
		Requests: map[string]RequestDef{
			"textBody": {
				URI:    "https://svc.test/login",
				Method: "POST",
				Body:   "hello {{user}}",
			},
			"jsonBody": {
				URI:    "https://svc.test/login",
				Method: "POST",
				Body: map[string]interface{}{
					"name": "{{user}}",
					"id":   7,
				},
			},
		},
	}

	cfg, err := defs.RequestConfig("textBody", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := builtBody(t, cfg); got != "hello admin" {
		t.Errorf("Expected substituted text body, got %q", got)
	}

	cfg, err = defs.RequestConfig("jsonBody", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Structured bodies render as JSON with substitution applied.
	if got := builtBody(t, cfg); got != `{"id":7,"name":"admin"}` {
		t.Errorf("Expected rendered JSON body, got %q", got)
	}
}

func TestRequestConfig_InvalidVersion(t *testing.T) {
	defs := &Definitions{
		Requests: map[string]RequestDef{
			"bad": {URI: "https://svc.test", Version: "spdy"},
		},
	}
	if _, err := defs.RequestConfig("bad", nil); err == nil {
		t.Errorf("Expected error for invalid version, got nil")
	}
}

func TestApplyExtract(t *testing.T) {
	defs := &Definitions{
		Requests: map[string]RequestDef{
			"login": {
				URI: "https://svc.test/login",
				Extract: map[string]string{
					"sessionId": "$.session.id",
					"userName":  "$.user",
				},
			},
			"plain": {URI: "https://svc.test/health"},
		},
	}

	resp := normalizedResponse(t, `{"session": {"id": "s-123"}, "user": "ada"}`)

	vars, err := defs.ApplyExtract("login", resp, map[string]string{"existing": "kept"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if vars["sessionId"] != "s-123" {
		t.Errorf("Expected sessionId s-123, got %q", vars["sessionId"])
	}
	if vars["userName"] != "ada" {
		t.Errorf("Expected userName ada, got %q", vars["userName"])
	}
	if vars["existing"] != "kept" {
		t.Errorf("Expected existing vars to survive, got %v", vars)
	}

	// Requests without extract paths pass vars through.
	vars, err = defs.ApplyExtract("plain", resp, map[string]string{"a": "1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if vars["a"] != "1" || len(vars) != 1 {
		t.Errorf("Expected vars passthrough, got %v", vars)
	}

	if _, err := defs.ApplyExtract("nope", resp, nil); err == nil {
		t.Errorf("Expected error for unknown request, got nil")
	}
}

func TestApplyExtract_PartialFailure(t *testing.T) {
	defs := &Definitions{
		Requests: map[string]RequestDef{
			"login": {
				URI: "https://svc.test/login",
				Extract: map[string]string{
					"good": "$.user",
					"bad":  "$.missing",
				},
			},
		},
	}

	resp := normalizedResponse(t, `{"user": "ada"}`)

	vars, err := defs.ApplyExtract("login", resp, nil)
	if err == nil {
		t.Fatalf("Expected extraction error, got nil")
	}
	// What succeeded is still merged in.
	if vars["good"] != "ada" {
		t.Errorf("Expected successful extraction to be kept, got %v", vars)
	}
}

func TestValidateResponseAgainstSchema(t *testing.T) {
	defs := &Definitions{
		Requests: map[string]RequestDef{
			"login":    {URI: "https://svc.test/login", Schema: "session"},
			"plain":    {URI: "https://svc.test/health"},
			"dangling": {URI: "https://svc.test/x", Schema: "nope"},
		},
		Schemas: map[string]map[string]interface{}{
			"session": {
				"type":     "object",
				"required": []interface{}{"session"},
			},
		},
	}

	valid, errs := defs.ValidateResponse("login", normalizedResponse(t, `{"session": "s-1"}`))
	if !valid {
		t.Errorf("Expected valid response, got errors: %v", errs)
	}

	valid, errs = defs.ValidateResponse("login", normalizedResponse(t, `{"other": true}`))
	if valid {
		t.Errorf("Expected invalid response, got valid")
	}
	if len(errs) == 0 || !strings.Contains(errs.Error(), "session") {
		t.Errorf("Expected violation mentioning session, got %v", errs)
	}

	// No schema reference means the response passes.
	valid, errs = defs.ValidateResponse("plain", normalizedResponse(t, `{}`))
	if !valid || len(errs) != 0 {
		t.Errorf("Expected pass without schema, got valid=%v errs=%v", valid, errs)
	}

	valid, errs = defs.ValidateResponse("dangling", normalizedResponse(t, `{}`))
	if valid || len(errs) == 0 {
		t.Errorf("Expected failure for dangling schema reference")
	}

	valid, errs = defs.ValidateResponse("nope", normalizedResponse(t, `{}`))
	if valid || len(errs) == 0 {
		t.Errorf("Expected failure for unknown request")
	}
}

// TestDefinitionsSendFlow drives the whole chain: load definitions,
// build the client, materialize a request, send it, extract variables
// and validate the body.
func TestDefinitionsSendFlow(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/users/1" {
			nethttp.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("Expected page=2 query, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Expected Accept header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 42, "name": "Ada"}`))
	}))
	defer server.Close()

	const flowDefs = `
variables:
  baseUrl: "placeholder"

clients:
  api:
    connectTimeout: 5s

requests:
  getUser:
    uri: "{{baseUrl}}/users/1"
    client: api
    headers:
      Accept: application/json
    query:
      page: "2"
    extract:
      userId: "$.id"
    schema: user

schemas:
  user:
    type: object
    required: [id, name]
`

	defs, err := Parse([]byte(flowDefs), "defs.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if errs := defs.Validate(); len(errs) != 0 {
		t.Fatalf("Expected valid definitions, got %v", errs)
	}

	client, err := defs.BuildClient("api")
	if err != nil {
		t.Fatalf("Expected no error building client, got %v", err)
	}

	vars := map[string]string{"baseUrl": server.URL}
	reqCfg, err := defs.RequestConfig("getUser", vars)
	if err != nil {
		t.Fatalf("Expected no error materializing request, got %v", err)
	}

	resp, err := client.Send(context.Background(), reqCfg, nil)
	if err != nil {
		t.Fatalf("Expected no error sending, got %v", err)
	}
	if resp.Status != 200 {
		t.Fatalf("Expected status 200, got %d", resp.Status)
	}

	vars, err = defs.ApplyExtract("getUser", resp, vars)
	if err != nil {
		t.Fatalf("Expected no extraction error, got %v", err)
	}
	if vars["userId"] != "42" {
		t.Errorf("Expected extracted userId 42, got %q", vars["userId"])
	}

	valid, verrs := defs.ValidateResponse("getUser", resp)
	if !valid {
		t.Errorf("Expected schema validation to pass, got %v", verrs)
	}
}

// builtBody builds the request and reads back its payload.
func builtBody(t *testing.T, cfg http.RequestConfig) string {
	t.Helper()

	req, err := http.BuildRequest(cfg)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if req.Raw().Body == nil {
		return ""
	}
	data, err := io.ReadAll(req.Raw().Body)
	if err != nil {
		t.Fatalf("Failed to read request body: %v", err)
	}
	return string(data)
}

// normalizedResponse wraps a JSON body in a canonical response.
func normalizedResponse(t *testing.T, body string) *http.Response {
	t.Helper()

	raw := &nethttp.Response{
		StatusCode: 200,
		Proto:      "HTTP/1.1",
		Header:     nethttp.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	resp, err := http.NormalizeResponse(raw, http.ModeText)
	if err != nil {
		t.Fatalf("Failed to normalize response: %v", err)
	}
	return resp
}
