// Package jsonpath resolves JSONPath expressions against JSON
// documents and response bodies. It supports the dotted and bracketed
// subset of JSONPath ($.a.b, $['a'], $[0]); filters and recursive
// descent are not supported.
package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/riposte-dev/riposte/http"
)

// Extract resolves a single JSONPath expression against a JSON
// document and returns the matched value rendered as a string. JSON
// null renders as "null"; objects and arrays render as raw JSON.
func Extract(doc string, path string) (string, error) {
	if doc == "" {
		return "", fmt.Errorf("empty JSON document")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.Valid(doc) {
		return "", fmt.Errorf("invalid JSON document")
	}

	result := gjson.Get(doc, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractMultiple resolves a set of named JSONPath expressions against
// one document. Every path is attempted; on failure the successful
// extractions are still returned together with an error listing the
// failed names in sorted order.
func ExtractMultiple(doc string, paths map[string]string) (map[string]string, error) {
	if doc == "" {
		return nil, fmt.Errorf("empty JSON document")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	results := make(map[string]string, len(paths))
	var failed []string
	for name, path := range paths {
		value, err := Extract(doc, path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failed, "; "))
	}
	return results, nil
}

// ExtractFromResponse resolves a JSONPath expression against a
// response body. The body is read through Response.GetBody, so the
// response stays readable for later callers.
func ExtractFromResponse(resp *http.Response, path string) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("nil response")
	}
	body, err := resp.GetBodyAsString()
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return Extract(body, path)
}

// ExtractMultipleFromResponse resolves a set of named JSONPath
// expressions against a response body.
func ExtractMultipleFromResponse(resp *http.Response, paths map[string]string) (map[string]string, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}
	body, err := resp.GetBodyAsString()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return ExtractMultiple(body, paths)
}

// toGjsonPath rewrites a JSONPath expression into gjson dot syntax,
// for example $.users[0].name becomes users.0.name. Keys holding
// literal dots survive when written in bracket notation.
func toGjsonPath(path string) string {
	rest := strings.TrimPrefix(path, "$")
	if rest == "" {
		return "@this"
	}

	var parts []string
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end > 0 {
				parts = append(parts, rest[:end])
			}
			rest = rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				end = len(rest)
			}
			parts = append(parts, escapeSegment(strings.Trim(rest[1:end], `'"`)))
			if end == len(rest) {
				rest = ""
			} else {
				rest = rest[end+1:]
			}
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			parts = append(parts, rest[:end])
			rest = rest[end:]
		}
	}

	if len(parts) == 0 {
		return "@this"
	}
	return strings.Join(parts, ".")
}

// escapeSegment escapes characters gjson treats as path syntax so that
// bracket-quoted keys match literally.
func escapeSegment(seg string) string {
	if !strings.ContainsAny(seg, ".*?") {
		return seg
	}
	var sb strings.Builder
	for _, r := range seg {
		switch r {
		case '.', '*', '?':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
