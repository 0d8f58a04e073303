package filter

import "errors"

// Sentinel kinds for filter errors.
var (
	ErrMalformedParam   = errors.New("malformed filter parameter")
	ErrUnknownDimension = errors.New("unknown filter dimension")
)

// DecodeError reports a malformed value for one dimension.
type DecodeError struct {
	Dimension Dimension
	Raw       string
	Err       error
}

func (e *DecodeError) Error() string {
	return "filter " + string(e.Dimension) + ": " + ErrMalformedParam.Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformedParam, e.Err} }
