package http

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestBuildRequest_MissingURI(t *testing.T) {
	_, err := BuildRequest(RequestConfig{Method: "GET"})
	if err == nil {
		t.Fatal("expected error for missing URI")
	}
	if !IsConfig(err) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestBuildRequest_InvalidURI(t *testing.T) {
	_, err := BuildRequest(RequestConfig{URI: "://missing-scheme"})
	if err == nil {
		t.Fatal("expected error for invalid URI")
	}
	if !IsConfig(err) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestBuildRequest_MethodNormalization(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"", "GET"},
		{"get", "GET"},
		{"Post", "POST"},
		{"propfind", "PROPFIND"},
	}

	for _, tt := range tests {
		req, err := BuildRequest(RequestConfig{URI: "https://example.com", Method: tt.method})
		if err != nil {
			t.Fatalf("BuildRequest(%q) error: %v", tt.method, err)
		}
		if req.Method() != tt.want {
			t.Errorf("Method() = %q, want %q", req.Method(), tt.want)
		}
		if req.Raw().Method != tt.want {
			t.Errorf("Raw().Method = %q, want %q", req.Raw().Method, tt.want)
		}
	}
}

func TestBuildRequest_UnknownVersion(t *testing.T) {
	_, err := BuildRequest(RequestConfig{URI: "https://example.com", Version: "http3"})
	if err == nil {
		t.Fatal("expected error for unknown version")
	}
	if !IsConfig(err) {
		t.Errorf("error = %v, want *ConfigError", err)
	}
}

func TestBuildRequest_MultiValuedHeaders(t *testing.T) {
	req, err := BuildRequest(RequestConfig{
		URI: "https://example.com",
		Headers: Headers{
			"x-multi":  {"one", "two", "three"},
			"x-single": {"only"},
		},
	})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	// Each value becomes its own header entry, in order
	got := req.Raw().Header.Values("X-Multi")
	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Errorf("X-Multi = %v, want [one two three]", got)
	}
	if req.Raw().Header.Get("X-Single") != "only" {
		t.Errorf("X-Single = %q, want only", req.Raw().Header.Get("X-Single"))
	}
}

func TestBuildRequest_HostHeader(t *testing.T) {
	req, err := BuildRequest(RequestConfig{
		URI:     "https://example.com/things",
		Headers: Headers{"host": {"override.example.net"}},
	})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if req.Raw().Host != "override.example.net" {
		t.Errorf("Host = %q, want override.example.net", req.Raw().Host)
	}
}

func TestBuildRequest_ExpectContinue(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name    string
		cfg     RequestConfig
		want    string
		present bool
	}{
		{
			name: "absent leaves request untouched",
			cfg:  RequestConfig{URI: "https://example.com"},
		},
		{
			name: "true sets the header",
			cfg:  RequestConfig{URI: "https://example.com", ExpectContinue: &yes},
			want: "100-continue", present: true,
		},
		{
			name: "false removes an inherited header",
			cfg: RequestConfig{
				URI:            "https://example.com",
				Headers:        Headers{"expect": {"100-continue"}},
				ExpectContinue: &no,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.cfg)
			if err != nil {
				t.Fatalf("BuildRequest error: %v", err)
			}
			got := req.Raw().Header.Get("Expect")
			if tt.present && got != tt.want {
				t.Errorf("Expect = %q, want %q", got, tt.want)
			}
			if !tt.present && got != "" {
				t.Errorf("Expect = %q, want unset", got)
			}
		})
	}
}

func TestBuildRequest_TextBody(t *testing.T) {
	req, err := BuildRequest(RequestConfig{
		URI:    "https://example.com",
		Method: "post",
		Body:   Text(`{"name":"ada"}`),
	})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	raw := req.Raw()
	if raw.ContentLength != int64(len(`{"name":"ada"}`)) {
		t.Errorf("ContentLength = %d, want %d", raw.ContentLength, len(`{"name":"ada"}`))
	}

	// Text bodies are snapshotted so the request stays replayable
	if raw.GetBody == nil {
		t.Fatal("GetBody = nil, want replayable snapshot")
	}
	rc, err := raw.GetBody()
	if err != nil {
		t.Fatalf("GetBody error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != `{"name":"ada"}` {
		t.Errorf("body = %s, want the original payload", data)
	}
}

func TestBuildRequest_StreamBody(t *testing.T) {
	req, err := BuildRequest(RequestConfig{
		URI:    "https://example.com",
		Method: "post",
		Body:   Stream(strings.NewReader("streamed")),
	})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	// Stream bodies are single-shot even over seekable readers, so the
	// builder must not expose a replay hook.
	if req.Raw().GetBody != nil {
		t.Error("GetBody != nil, want single-shot stream body")
	}

	data, err := io.ReadAll(req.Raw().Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(data) != "streamed" {
		t.Errorf("body = %q, want %q", data, "streamed")
	}
}

func TestBuildRequest_TimeoutAndVersionRecorded(t *testing.T) {
	req, err := BuildRequest(RequestConfig{
		URI:     "https://example.com",
		Timeout: Millis(2500),
		Version: HTTP2,
	})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if req.Timeout() != 2500*time.Millisecond {
		t.Errorf("Timeout() = %v, want 2.5s", req.Timeout())
	}
	if req.Version() != HTTP2 {
		t.Errorf("Version() = %v, want %v", req.Version(), HTTP2)
	}
}

func TestWrapRequest(t *testing.T) {
	raw, err := http.NewRequest("PUT", "https://example.com/items/1", nil)
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}

	req := WrapRequest(raw)
	if req.Raw() != raw {
		t.Error("Raw() does not return the wrapped request")
	}
	if req.Method() != "PUT" {
		t.Errorf("Method() = %q, want PUT", req.Method())
	}
	if req.URL() != "https://example.com/items/1" {
		t.Errorf("URL() = %q, want the original URL", req.URL())
	}
}
