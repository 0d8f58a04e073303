package stage

import "errors"

// Sentinel kinds for stage form errors.
var (
	ErrInvalidForm = errors.New("invalid stage form")
)

// Violation describes one failed form field.
type Violation struct {
	Field     string `json:"field,omitempty"`
	Violation string `json:"violation"`
	Message   string `json:"message"`
}

// ValidationError carries every violation of a rejected form.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msg := ErrInvalidForm.Error()
	for _, v := range e.Violations {
		msg += "; " + v.Message
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalidForm }
