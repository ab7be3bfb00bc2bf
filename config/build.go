package config

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/riposte-dev/riposte/http"
	"github.com/riposte-dev/riposte/pkg/jsonpath"
	"github.com/riposte-dev/riposte/pkg/jsonschema"
)

// ClientConfig materializes a named client definition. File-level
// variables are substituted into the proxy URL and user agent.
func (d *Definitions) ClientConfig(name string) (http.ClientConfig, error) {
	def, ok := d.Clients[name]
	if !ok {
		return http.ClientConfig{}, fmt.Errorf("client not found: %s", name)
	}

	cfg := http.ClientConfig{
		ConnectTimeout: def.ConnectTimeout,
		Priority:       def.Priority,
		UserAgent:      Substitute(def.UserAgent, d.Variables),
	}

	if def.FollowRedirects != "" {
		policy, err := http.ParseRedirectPolicy(def.FollowRedirects)
		if err != nil {
			return http.ClientConfig{}, fmt.Errorf("client %s: %w", name, err)
		}
		cfg.FollowRedirects = policy
	}

	if def.Version != "" {
		version, err := http.ParseVersion(def.Version)
		if err != nil {
			return http.ClientConfig{}, fmt.Errorf("client %s: %w", name, err)
		}
		cfg.Version = version
	}

	if def.Proxy != "" {
		proxyURL, err := url.Parse(Substitute(def.Proxy, d.Variables))
		if err != nil {
			return http.ClientConfig{}, fmt.Errorf("client %s: invalid proxy URL: %w", name, err)
		}
		cfg.Proxy = nethttp.ProxyURL(proxyURL)
	}

	if def.Insecure {
		cfg.TLS = &tls.Config{InsecureSkipVerify: true}
	}

	if def.Cookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return http.ClientConfig{}, fmt.Errorf("client %s: %w", name, err)
		}
		cfg.CookieJar = jar
	}

	return cfg, nil
}

// BuildClient materializes a named client definition and builds the
// client. To attach runtime handles such as a logger or a metrics
// collector, use ClientConfig and build the client yourself.
func (d *Definitions) BuildClient(name string) (*http.Client, error) {
	cfg, err := d.ClientConfig(name)
	if err != nil {
		return nil, err
	}
	return http.BuildClient(cfg)
}

// RequestConfig materializes a named request template. File-level
// variables merged with vars are substituted into the URI, query
// values, header values and body; vars wins on conflicts.
func (d *Definitions) RequestConfig(name string, vars map[string]string) (http.RequestConfig, error) {
	def, ok := d.Requests[name]
	if !ok {
		return http.RequestConfig{}, fmt.Errorf("request not found: %s", name)
	}

	merged := MergeVariables(d.Variables, vars)

	uri := Substitute(def.URI, merged)
	if len(def.Query) > 0 {
		withQuery, err := appendQuery(uri, def.Query, merged)
		if err != nil {
			return http.RequestConfig{}, fmt.Errorf("request %s: %w", name, err)
		}
		uri = withQuery
	}

	cfg := http.RequestConfig{
		URI:            uri,
		Method:         def.Method,
		Timeout:        def.Timeout,
		ExpectContinue: def.ExpectContinue,
	}

	if len(def.Headers) > 0 {
		headers := make(http.Headers, len(def.Headers))
		for key, values := range def.Headers {
			substituted := make(http.HeaderValue, len(values))
			for i, v := range values {
				substituted[i] = Substitute(v, merged)
			}
			headers[key] = substituted
		}
		cfg.Headers = headers
	}

	if def.Version != "" {
		version, err := http.ParseVersion(def.Version)
		if err != nil {
			return http.RequestConfig{}, fmt.Errorf("request %s: %w", name, err)
		}
		cfg.Version = version
	}

	body, err := renderBody(def.Body, merged)
	if err != nil {
		return http.RequestConfig{}, fmt.Errorf("request %s: %w", name, err)
	}
	cfg.Body = body

	return cfg, nil
}

// ApplyExtract resolves the named request's extract paths against a
// response body and returns vars merged with the extracted values.
// Extraction failures are reported after merging whatever succeeded,
// so callers can treat the error as a warning.
func (d *Definitions) ApplyExtract(name string, resp *http.Response, vars map[string]string) (map[string]string, error) {
	def, ok := d.Requests[name]
	if !ok {
		return vars, fmt.Errorf("request not found: %s", name)
	}
	if len(def.Extract) == 0 {
		return MergeVariables(vars), nil
	}

	extracted, err := jsonpath.ExtractMultipleFromResponse(resp, def.Extract)
	return MergeVariables(vars, extracted), err
}

// ValidateResponse checks a response body against the schema
// referenced by the named request definition. Requests without a
// schema reference always pass.
func (d *Definitions) ValidateResponse(name string, resp *http.Response) (bool, jsonschema.ValidationErrors) {
	def, ok := d.Requests[name]
	if !ok {
		return false, jsonschema.ValidationErrors{fmt.Errorf("request not found: %s", name)}
	}
	if def.Schema == "" {
		return true, nil
	}

	schemaStr, err := d.SchemaJSON(def.Schema)
	if err != nil {
		return false, jsonschema.ValidationErrors{err}
	}
	return jsonschema.ValidateResponse(resp, schemaStr)
}

func appendQuery(uri string, query map[string]string, vars map[string]string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid uri: %w", err)
	}

	q := u.Query()
	for key, value := range query {
		q.Set(key, Substitute(value, vars))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// renderBody turns a definition body into a request body. Strings are
// sent verbatim; any other structure is rendered as JSON. Variable
// substitution runs over the final text either way.
func renderBody(body interface{}, vars map[string]string) (http.Body, error) {
	switch b := body.(type) {
	case nil:
		return http.Body{}, nil
	case string:
		return http.Text(Substitute(b, vars)), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return http.Body{}, fmt.Errorf("failed to render body as JSON: %w", err)
		}
		return http.Text(Substitute(string(data), vars)), nil
	}
}
