package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartrental/rental-web/internal/rentalapi"
)

// FallbackMessage is shown when a failure carries no usable detail.
const FallbackMessage = "Something went wrong."

// NormalizeError turns any failure into one human-readable message. A
// server-supplied message wins, then the HTTP status, then the transport
// error text, then FallbackMessage.
func NormalizeError(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}

	var apiErr *rentalapi.Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.ServerMessage); msg != "" {
			return msg
		}
		if apiErr.Status != 0 {
			return fmt.Sprintf("Request failed (status %d).", apiErr.Status)
		}
		if apiErr.Err != nil {
			if msg := strings.TrimSpace(apiErr.Err.Error()); msg != "" {
				return msg
			}
		}
		return FallbackMessage
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) && strings.TrimSpace(authErr.Message) != "" {
		return authErr.Message
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) && strings.TrimSpace(transportErr.Message) != "" {
		return transportErr.Message
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackMessage
}

// classify wraps an API failure into the error taxonomy. Only 400, 401 and
// 403 mean the credentials were refused; any other status is a transport
// failure.
func classify(err error) error {
	msg := NormalizeError(err)
	var apiErr *rentalapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return &AuthenticationError{Message: msg, Err: err}
		}
	}
	return &TransportError{Message: msg, Err: err}
}
