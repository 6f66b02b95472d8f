package discoveryrt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const maxErrorBody = 64 << 10

// Error is returned by Client.Do for a non-2xx response.
type Error struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *Error) Error() string {
	msg := e.Status
	if msg == "" {
		msg = fmt.Sprintf("%d", e.StatusCode)
	}
	if details := e.Messages(); len(details) > 0 {
		return "discoveryrt: " + msg + ": " + strings.Join(details, "; ")
	}
	return "discoveryrt: " + msg
}

// Messages extracts the "errors" array servers such as Arvados put in error
// bodies. It returns nil when the body has no such array.
func (e *Error) Messages() []string {
	var payload struct {
		Errors []string `json:"errors"`
	}
	if json.Unmarshal(e.Body, &payload) != nil {
		return nil
	}
	return payload.Errors
}

// StatusCode returns the HTTP status of err when it wraps an *Error, and 0
// otherwise.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
