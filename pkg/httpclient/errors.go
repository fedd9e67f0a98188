package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
)

// remoteError covers the error bodies of PostgREST ({message, code}), the
// hosted auth API ({error, error_description} or {msg}) and our own envelope
// ({error: {code, message}}).
type remoteError struct {
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Code             json.RawMessage `json:"code"`
	ErrorField       json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (r remoteError) text() string {
	switch {
	case r.ErrorDescription != "":
		return r.ErrorDescription
	case r.Message != "":
		return r.Message
	case r.Msg != "":
		return r.Msg
	}

	var s string
	if json.Unmarshal(r.ErrorField, &s) == nil && s != "" {
		return s
	}
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(r.ErrorField, &env) == nil {
		return env.Message
	}
	return ""
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// maps it onto an AppError carrying the remote message.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	message := string(body)
	var remote remoteError
	if json.Unmarshal(body, &remote) == nil {
		if m := remote.text(); m != "" {
			message = m
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return mapStatus(resp.StatusCode, service, message)
}

func mapStatus(status int, service, message string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited(qualified)
	case status >= http.StatusInternalServerError:
		return apperrors.Unavailable(service, fmt.Errorf("status %d: %s", status, message))
	default:
		return &apperrors.AppError{Code: "UPSTREAM_ERROR", Message: qualified, Status: http.StatusBadGateway}
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
