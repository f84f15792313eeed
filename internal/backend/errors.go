package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTransport wraps network failures: the backend could not be reached
	// or the connection broke before a response arrived.
	ErrTransport = errors.New("backend unreachable")
	// ErrUnauthorized is matched by API errors with status 401 or 403.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrNotFound is returned when a record is missing from a collection.
	ErrNotFound = errors.New("not found")
)

// GenericErrorMessage is shown to users when no backend message is available
const GenericErrorMessage = "Er is een fout opgetreden, probeer het later opnieuw."

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match rejected credentials.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeAPIError builds an APIError from a non-2xx response.
// The body's "message" wins over "error", which wins over the status text.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if len(data) > 0 && json.Unmarshal(data, &body) == nil {
		switch {
		case strings.TrimSpace(body.Message) != "":
			apiErr.Message = body.Message
		case strings.TrimSpace(body.Error) != "":
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// UserMessage returns the text to show a user for err: the backend's message
// verbatim for API errors, a generic message otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return GenericErrorMessage
}
