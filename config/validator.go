package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/riposte-dev/riposte/http"
)

// ValidationError describes one problem found in a definitions file.
type ValidationError struct {
	// Path locates the invalid field, for example requests.login.uri
	Path string

	// Message describes the problem
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks the definitions for problems that would surface
// later during materialization. An empty slice means the definitions
// are usable. Errors are reported in a stable order.
func (d *Definitions) Validate() []ValidationError {
	var errors []ValidationError

	if len(d.Clients) == 0 && len(d.Requests) == 0 {
		errors = append(errors, ValidationError{
			Path:    "definitions",
			Message: "at least one client or request must be defined",
		})
	}

	clientNames := make([]string, 0, len(d.Clients))
	for name := range d.Clients {
		clientNames = append(clientNames, name)
	}
	sort.Strings(clientNames)

	for _, name := range clientNames {
		def := d.Clients[name]

		if def.ConnectTimeout < 0 {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("clients.%s.connectTimeout", name),
				Message: "timeout cannot be negative",
			})
		}

		if def.FollowRedirects != "" && !validRedirectPolicy(def.FollowRedirects) {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("clients.%s.followRedirects", name),
				Message: fmt.Sprintf("invalid redirect policy: %s", def.FollowRedirects),
			})
		}

		if def.Version != "" && !validVersion(def.Version) {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("clients.%s.version", name),
				Message: fmt.Sprintf("invalid protocol version: %s", def.Version),
			})
		}

		// Proxy URLs carrying placeholders are checked after
		// substitution instead.
		if def.Proxy != "" && !strings.Contains(def.Proxy, "{{") {
			proxyURL, err := url.Parse(def.Proxy)
			if err != nil {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("clients.%s.proxy", name),
					Message: fmt.Sprintf("invalid proxy URL: %v", err),
				})
			} else if proxyURL.Scheme == "" {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("clients.%s.proxy", name),
					Message: "proxy URL must be absolute",
				})
			}
		}
	}

	requestNames := make([]string, 0, len(d.Requests))
	for name := range d.Requests {
		requestNames = append(requestNames, name)
	}
	sort.Strings(requestNames)

	for _, name := range requestNames {
		def := d.Requests[name]

		if def.URI == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.uri", name),
				Message: "uri is required",
			})
		}

		if def.Timeout < 0 {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.timeout", name),
				Message: "timeout cannot be negative",
			})
		}

		if def.Version != "" && !validVersion(def.Version) {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.version", name),
				Message: fmt.Sprintf("invalid protocol version: %s", def.Version),
			})
		}

		if def.Client != "" {
			if _, ok := d.Clients[def.Client]; !ok {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("requests.%s.client", name),
					Message: fmt.Sprintf("client not found: %s", def.Client),
				})
			}
		}

		if def.Schema != "" {
			if _, ok := d.Schemas[def.Schema]; !ok {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("requests.%s.schema", name),
					Message: fmt.Sprintf("schema not found: %s", def.Schema),
				})
			}
		}

		extractNames := make([]string, 0, len(def.Extract))
		for varName := range def.Extract {
			extractNames = append(extractNames, varName)
		}
		sort.Strings(extractNames)

		for _, varName := range extractNames {
			if def.Extract[varName] == "" {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("requests.%s.extract.%s", name, varName),
					Message: "extract path cannot be empty",
				})
			}
		}
	}

	return errors
}

func validRedirectPolicy(s string) bool {
	_, err := http.ParseRedirectPolicy(s)
	return err == nil
}

func validVersion(s string) bool {
	_, err := http.ParseVersion(s)
	return err == nil
}
