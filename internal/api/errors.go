package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a rejection from the backend: a non-2xx response with a
// machine-readable code and a human message.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *APIError) IsInsufficientFunds() bool {
	return e.Code == "insufficient_funds"
}

func (e *APIError) IsRateLimited() bool {
	return e.Status == 429
}

func (e *APIError) IsCooldown() bool {
	return strings.Contains(e.Code, "cooldown")
}

func (e *APIError) IsBlocked() bool {
	return e.Code == "blocked_by_policy"
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ParseAPIError builds an APIError from a non-2xx response. The body may
// be empty or non-JSON; the code falls back to http_<status> and the
// message to a per-status default.
func ParseAPIError(status int, body []byte) *APIError {
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &parsed)
	}
	code := parsed.Code
	if code == "" {
		code = fmt.Sprintf("http_%d", status)
	}
	message := parsed.Message
	if message == "" {
		message = defaultMessage(status)
	}
	return &APIError{Code: code, Message: message, Status: status}
}

func defaultMessage(status int) string {
	switch status {
	case 400:
		return "invalid request"
	case 401:
		return "authentication required"
	case 403:
		return "access denied"
	case 404:
		return "resource not found"
	case 429:
		return "too many requests, try again shortly"
	case 500:
		return "server error"
	default:
		return fmt.Sprintf("request failed (%d)", status)
	}
}

// Describe maps any error into a user-displayable string.
func Describe(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "check your network connection"
	}
	return err.Error()
}
