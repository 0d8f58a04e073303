package graphql

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel kinds for remote errors. Every *Error wraps exactly one of them.
var (
	ErrTransport    = errors.New("graphql transport failed")
	ErrStatus       = errors.New("graphql unexpected status")
	ErrGraphQL      = errors.New("graphql errors returned")
	ErrNotFound     = errors.New("graphql entity not found")
	ErrDecode       = errors.New("graphql response decode failed")
	ErrSubscription = errors.New("graphql subscription failed")
)

// ServerError is one entry of the response "errors" array.
type ServerError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Error describes a failed remote operation. It marshals to JSON so pages
// can show the failure inline.
type Error struct {
	Kind      error         `json:"-"`
	Code      string        `json:"code"`
	Operation string        `json:"operation"`
	Status    int           `json:"status,omitempty"`
	Message   string        `json:"message"`
	Errors    []ServerError `json:"errors,omitempty"`
	Err       error         `json:"-"`
}

func newError(kind error, op string, err error) *Error {
	e := &Error{Kind: kind, Code: codeOf(kind), Operation: op, Err: err}
	if err != nil {
		e.Message = err.Error()
	} else {
		e.Message = kind.Error()
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(e.Status))
		b.WriteString(")")
	}
	if e.Message != "" && e.Message != e.Kind.Error() {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func codeOf(kind error) string {
	switch {
	case errors.Is(kind, ErrTransport):
		return "transport"
	case errors.Is(kind, ErrStatus):
		return "status"
	case errors.Is(kind, ErrGraphQL):
		return "graphql"
	case errors.Is(kind, ErrNotFound):
		return "not_found"
	case errors.Is(kind, ErrDecode):
		return "decode"
	case errors.Is(kind, ErrSubscription):
		return "subscription"
	}
	return "unknown"
}
