package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed call.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindUnauthorized
	KindServer
	KindDecode
)

var (
	ErrTimeout      = errors.New("request timeout")
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")
	ErrDecode       = errors.New("decode error")
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindNetwork:
		return ErrNetwork
	case KindUnauthorized:
		return ErrUnauthorized
	case KindServer:
		return ErrServer
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// Error is returned for every failed call made through a Requester.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Body    string
	Timeout time.Duration
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s %s: request timeout after %s", e.Method, e.Path, e.Timeout)
	case KindNetwork:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	case KindDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
	default:
		if e.Body == "" {
			return fmt.Sprintf("%s %s: API error %d: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
		}
		return fmt.Sprintf("%s %s: API error %d: %s", e.Method, e.Path, e.Status, e.Body)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) StatusCode() int { return e.Status }

// KindOf returns the kind of err, or 0 when err did not come from a Requester.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func truncate(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "..."
}
