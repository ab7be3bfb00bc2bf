package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"api key redacted",
			"https://example.com/path?api_key=supersecret&page=2",
			"https://example.com/path?api_key=%5BREDACTED%5D&page=2",
		},
		{
			"token redacted case-insensitively",
			"https://example.com/?TOKEN=abc",
			"https://example.com/?TOKEN=%5BREDACTED%5D",
		},
		{
			"plain params untouched",
			"https://example.com/path?page=2&sort=asc",
			"https://example.com/path?page=2&sort=asc",
		},
		{
			"no query untouched",
			"https://example.com/path",
			"https://example.com/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("parsing %q: %v", tt.input, err)
			}
			if got := sanitizeURL(u); got != tt.want {
				t.Errorf("sanitizeURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeURL_Nil(t *testing.T) {
	if got := sanitizeURL(nil); got != "" {
		t.Errorf("sanitizeURL(nil) = %q, want empty", got)
	}
}

func TestLoggingTransport_LogsExchange(t *testing.T) {
	var correlation string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlation = r.Header.Get("X-Correlation-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	client, err := BuildClient(ClientConfig{Logger: &logger})
	if err != nil {
		t.Fatalf("BuildClient error: %v", err)
	}

	if _, err := client.Send(context.Background(), URL(server.URL+"/?token=secret"), nil); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	logged := buf.String()

	if correlation == "" {
		t.Error("correlation ID not propagated to the server")
	}
	if !strings.Contains(logged, correlation) {
		t.Error("correlation ID missing from the log line")
	}
	if !strings.Contains(logged, `"method":"GET"`) {
		t.Errorf("method missing from log line: %s", logged)
	}
	if !strings.Contains(logged, `"status":200`) {
		t.Errorf("status missing from log line: %s", logged)
	}

	// Sensitive query values never reach the log
	if strings.Contains(logged, "secret") {
		t.Errorf("sensitive value leaked into log line: %s", logged)
	}
	if !strings.Contains(logged, "REDACTED") {
		t.Errorf("redaction marker missing from log line: %s", logged)
	}
}

func TestLoggingTransport_LogsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	client, err := BuildClient(ClientConfig{Logger: &logger})
	if err != nil {
		t.Fatalf("BuildClient error: %v", err)
	}

	if _, err := client.Send(context.Background(), URL(target), nil); err == nil {
		t.Fatal("expected transport error")
	}

	logged := buf.String()
	if !strings.Contains(logged, "http request failed") {
		t.Errorf("failure not logged: %s", logged)
	}
	if !strings.Contains(logged, `"level":"warn"`) {
		t.Errorf("failure not logged at warn level: %s", logged)
	}
}

func TestLoggingTransport_UserAgentInjection(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	client, err := BuildClient(ClientConfig{UserAgent: "riposte-agent"})
	if err != nil {
		t.Fatalf("BuildClient error: %v", err)
	}

	// Injected when the request has no agent of its own
	resp, err := client.Send(context.Background(), URL(server.URL), nil)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if got := resp.Headers.Get("x-seen-agent"); got != "riposte-agent" {
		t.Errorf("server saw agent %q, want riposte-agent", got)
	}

	// An explicit request agent wins
	resp, err = client.Send(context.Background(), RequestConfig{
		URI:     server.URL,
		Headers: Headers{"user-agent": {"explicit-agent"}},
	}, nil)
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if got := resp.Headers.Get("x-seen-agent"); got != "explicit-agent" {
		t.Errorf("server saw agent %q, want explicit-agent", got)
	}
}

func TestNewLoggingTransport_NilBase(t *testing.T) {
	transport := newLoggingTransport(nil, nil, "agent")
	if transport.base != http.DefaultTransport {
		t.Error("nil base must fall back to http.DefaultTransport")
	}
}
