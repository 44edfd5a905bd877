package chat

import "errors"

// ValidationError reports a malformed request (HTTP 400).
type ValidationError struct{ msg string }

func (e ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

var (
	errEmptyMessage = ValidationError{msg: "message is required"}
	errNoModelID    = ValidationError{msg: "model_id is required"}
	errBadMaxTokens = ValidationError{msg: "max_tokens must not be negative"}
)
