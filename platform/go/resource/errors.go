package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Sentinel errors surfaced by the client.
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("operation not permitted by the store")
)

// APIError captures a structured failure response from the resource store.
type APIError struct {
	Status  int
	Message string
	// Fields maps field names to the store's validation message for that field.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("resource store returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("resource store returned %d", e.Status)
}

// Is lets callers match not-found and forbidden responses with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// FirstFieldError returns the first field-level validation message in
// deterministic field order, or the top-level message when none exist.
func (e *APIError) FirstFieldError() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", names[0], e.Fields[names[0]])
}

// errorEnvelope mirrors the store's error payload:
// {"code": 400, "message": "...", "data": {"field": {"code": "...", "message": "..."}}}.
type errorEnvelope struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Data    map[string]errorFieldEntry `json:"data"`
}

type errorFieldEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}

	apiErr.Message = envelope.Message
	if len(envelope.Data) > 0 {
		apiErr.Fields = make(map[string]string, len(envelope.Data))
		for field, entry := range envelope.Data {
			apiErr.Fields[field] = entry.Message
		}
	}

	return apiErr
}
