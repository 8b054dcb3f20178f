package rentalapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks a success response that could not be used.
var ErrMalformedResponse = errors.New("malformed response from server")

// messageFields are checked in order when reading an error body.
var messageFields = []string{"error", "err", "detail", "message"}

// Error describes a failed call to the remote API. Status is zero when no
// response was received.
type Error struct {
	Method        string
	Path          string
	Status        int
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	switch {
	case e.ServerMessage != "":
		return fmt.Sprintf("rentalapi: %s %s: %d: %s", e.Method, e.Path, e.Status, e.ServerMessage)
	case e.Status != 0:
		return fmt.Sprintf("rentalapi: %s %s: status %d", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("rentalapi: %s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("rentalapi: %s %s failed", e.Method, e.Path)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// serverMessage extracts the first usable message field from an error body.
// Bodies that are not JSON objects yield "".
func serverMessage(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range messageFields {
		if msg := messageText(fields[key]); msg != "" {
			return msg
		}
	}
	return ""
}

func messageText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := messageText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
