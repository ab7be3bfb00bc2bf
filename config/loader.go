package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riposte-dev/riposte/http"
)

// Definitions is the top-level structure of a definitions file.
type Definitions struct {
	// Variables are file-level values available for {{name}}
	// substitution in client and request definitions
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`

	// Clients defines named client configurations
	Clients map[string]ClientDef `yaml:"clients,omitempty" json:"clients,omitempty"`

	// Requests defines named request templates
	Requests map[string]RequestDef `yaml:"requests,omitempty" json:"requests,omitempty"`

	// Schemas defines named JSON Schemas for response validation
	Schemas map[string]map[string]interface{} `yaml:"schemas,omitempty" json:"schemas,omitempty"`
}

// ClientDef is the data form of a client configuration. Only the
// fields expressible in a file appear here; runtime handles such as
// loggers, collectors and custom transports are attached by the
// caller after materialization.
type ClientDef struct {
	// ConnectTimeout bounds connection establishment. Integers are
	// milliseconds, strings use Go duration syntax
	ConnectTimeout http.Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`

	// FollowRedirects is one of never, always or normal
	FollowRedirects string `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty"`

	// Version is http1.1 or http2
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Proxy is a proxy URL routing all exchanges of this client
	Proxy string `yaml:"proxy,omitempty" json:"proxy,omitempty"`

	// UserAgent overrides the User-Agent header on requests that do
	// not set their own
	UserAgent string `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`

	// Priority is recorded on the built client
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// Insecure disables TLS certificate verification
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty"`

	// Cookies enables an in-memory cookie jar
	Cookies bool `yaml:"cookies,omitempty" json:"cookies,omitempty"`
}

// RequestDef is the data form of a request template.
type RequestDef struct {
	// URI is the target, after variable substitution
	URI string `yaml:"uri" json:"uri"`

	// Method defaults to GET
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// Client names the client definition this request prefers
	Client string `yaml:"client,omitempty" json:"client,omitempty"`

	// Headers accepts scalar or list values per name
	Headers http.Headers `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Query is appended to the URI's query string
	Query map[string]string `yaml:"query,omitempty" json:"query,omitempty"`

	// Body is either a string sent verbatim or a structure rendered
	// as JSON
	Body interface{} `yaml:"body,omitempty" json:"body,omitempty"`

	// Timeout bounds the exchange. Integers are milliseconds,
	// strings use Go duration syntax
	Timeout http.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Version is http1.1 or http2
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// ExpectContinue controls the Expect: 100-continue handshake
	ExpectContinue *bool `yaml:"expectContinue,omitempty" json:"expectContinue,omitempty"`

	// Extract maps variable names to JSONPath expressions resolved
	// against the response body
	Extract map[string]string `yaml:"extract,omitempty" json:"extract,omitempty"`

	// Schema names the schema the response body must validate
	// against
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Load reads a definitions file. The format is determined by
// extension: .json parses as JSON, anything else as YAML.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses definitions data. The format is determined by the file
// extension in path and defaults to YAML when the path is empty or
// has an unknown extension.
func Parse(data []byte, path string) (*Definitions, error) {
	var defs Definitions

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON definitions: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse YAML definitions: %w", err)
		}
	}

	return &defs, nil
}

// SchemaJSON renders a named schema as a JSON string suitable for the
// jsonschema validators.
func (d *Definitions) SchemaJSON(name string) (string, error) {
	schema, ok := d.Schemas[name]
	if !ok {
		return "", fmt.Errorf("schema not found: %s", name)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to render schema %s: %w", name, err)
	}
	return string(data), nil
}

// Substitute replaces {{name}} placeholders in input with values from
// vars. Placeholders without a matching variable are left as-is.
func Substitute(input string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(input, "{{") {
		return input
	}

	result := input
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// MergeVariables merges variable maps in order, later maps overriding
// earlier ones.
func MergeVariables(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
