// Package jsonschema validates JSON documents and response bodies
// against JSON Schema definitions. Format keywords (email, date, uri
// and friends) are asserted, not just annotated.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/riposte-dev/riposte/http"
)

// ValidationErrors collects the individual violations found during one
// validation pass.
type ValidationErrors []error

// Error joins all violations into a single message.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks a JSON document against a schema given as a JSON
// string. Schema violations yield (false, nil); a broken schema or
// unparseable document yields an error.
func Validate(doc, schemaStr string) (bool, error) {
	schema, err := compileSchema(schemaStr)
	if err != nil {
		return false, err
	}

	var data interface{}
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(data); err != nil {
		return false, nil
	}
	return true, nil
}

// ValidateWithErrors checks a JSON document against a schema and
// returns every violation found, one entry per failing location.
func ValidateWithErrors(doc, schemaStr string) (bool, ValidationErrors) {
	schema, err := compileSchema(schemaStr)
	if err != nil {
		return false, ValidationErrors{err}
	}
	return validateAgainst(doc, schema)
}

// ValidateFile checks a JSON document against a schema loaded from a
// file path or URL.
func ValidateFile(doc, schemaLocation string) (bool, ValidationErrors) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(schemaLocation)
	if err != nil {
		return false, ValidationErrors{fmt.Errorf("invalid schema: %w", err)}
	}
	return validateAgainst(doc, schema)
}

// ValidateResponse checks a response body against a schema given as a
// JSON string. The body is read through Response.GetBody, so the
// response stays readable for later callers.
func ValidateResponse(resp *http.Response, schemaStr string) (bool, ValidationErrors) {
	if resp == nil {
		return false, ValidationErrors{fmt.Errorf("nil response")}
	}
	body, err := resp.GetBodyAsString()
	if err != nil {
		return false, ValidationErrors{fmt.Errorf("reading response body: %w", err)}
	}
	return ValidateWithErrors(body, schemaStr)
}

func compileSchema(schemaStr string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

func validateAgainst(doc string, schema *jsonschema.Schema) (bool, ValidationErrors) {
	var data interface{}
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := schema.Validate(data); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return false, flatten(ve)
		}
		return false, ValidationErrors{err}
	}
	return true, nil
}

// flatten walks a validation error tree and keeps only the leaves, one
// actionable entry per failing location.
func flatten(ve *jsonschema.ValidationError) ValidationErrors {
	if len(ve.Causes) == 0 {
		return ValidationErrors{fmt.Errorf("%s: %s", instancePath(ve), ve.Message)}
	}

	var out ValidationErrors
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}

func instancePath(ve *jsonschema.ValidationError) string {
	if ve.InstanceLocation == "" {
		return "$"
	}
	return ve.InstanceLocation
}
