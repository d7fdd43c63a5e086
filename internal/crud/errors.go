package crud

import (
	"errors"
	"net/http"

	"github.com/alfredjeanlab/tablefn/internal/model"
)

// inputError indicates a problem with the caller's request.
type inputError string

func (e inputError) Error() string { return string(e) }

// InputError returns an error that maps to a 400 response carrying msg.
func InputError(msg string) error { return inputError(msg) }

// notFoundError indicates a keyed lookup found no record.
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

// failure carries an explicit status and a caller-facing message. The cause
// is logged and never returned to the caller.
type failure struct {
	status int
	msg    string
	cause  error
}

func (f *failure) Error() string {
	if f.cause == nil {
		return f.msg
	}
	return f.msg + ": " + f.cause.Error()
}

func (f *failure) Unwrap() error { return f.cause }

// ServerError returns an error that maps to a 500 response with msg.
func ServerError(msg string, cause error) error {
	return &failure{status: http.StatusInternalServerError, msg: msg, cause: cause}
}

// StatusError returns an error that maps to status with an {"error": msg} body.
func StatusError(status int, msg string) error {
	return &failure{status: status, msg: msg}
}

// errorResponse maps err to its status and body. logCause reports whether
// the error hides a cause that should be logged.
func errorResponse(err error) (status int, body any, logCause bool) {
	var (
		ie inputError
		nf notFoundError
		ve *model.ValidationError
		f  *failure
	)
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, errorBody{Error: ie.Error()}, false
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Error()}, false
	case errors.As(err, &nf):
		return http.StatusNotFound, messageBody{Message: nf.Error()}, false
	case errors.As(err, &f):
		return f.status, errorBody{Error: f.msg}, f.cause != nil
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal server error"}, true
	}
}
