package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// constraintMarkers are the payload fragments the backend emits when a delete or
// update hits a referential integrity check. Matching is case-insensitive.
var constraintMarkers = []string{
	"violates foreign key constraint",
	"foreign key",
	"constraint",
	"dataintegrityviolation",
}

// APIError is returned for every non-2xx backend answer
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       []byte
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody is the error envelope produced by the backend exception handler
type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    extractMessage(body),
		Body:       body,
	}
}

// extractMessage pulls a human readable message out of a JSON error envelope,
// falling back to the raw text for plain-text bodies.
func extractMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var env errorBody
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Message != "":
			return env.Message
		case len(env.Errors) > 0:
			msgs := make([]string, 0, len(env.Errors))
			for _, fe := range env.Errors {
				msgs = append(msgs, fe.Message)
			}
			return strings.Join(msgs, "; ")
		case env.Error != "":
			return env.Error
		}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

// AsAPIError unwraps err to *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsConstraintViolation reports whether err is a backend refusal caused by a
// foreign key reference (409 or 500 carrying a constraint marker).
func IsConstraintViolation(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	if apiErr.StatusCode != http.StatusConflict && apiErr.StatusCode != http.StatusInternalServerError {
		return false
	}
	haystack := strings.ToLower(apiErr.Message + " " + string(apiErr.Body))
	for _, marker := range constraintMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

// IsNotFound reports a 404 answer
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports a 401 or 403 answer
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// UserMessage returns the text shown to the user for a failed call
func UserMessage(err error) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
