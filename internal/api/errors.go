package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrSessionExpired is returned when the access token is rejected and cannot
// be refreshed. Callers drop to the login screen when they see it.
var ErrSessionExpired = errors.New("session expired")

// Error is a non-2xx response from the API, carrying the human-readable
// detail message when the server provided one.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}

	return fmt.Sprintf("request failed: %s", http.StatusText(e.Status))
}

func IsNotFound(err error) bool   { return hasStatus(err, http.StatusNotFound) }
func IsForbidden(err error) bool  { return hasStatus(err, http.StatusForbidden) }
func IsBadRequest(err error) bool { return hasStatus(err, http.StatusBadRequest) }
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized) || errors.Is(err, ErrSessionExpired)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorFromResponse extracts the server's detail message from an error
// payload. The API reports errors as {"detail": "..."}.
func errorFromResponse(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}

	return apiErr
}
