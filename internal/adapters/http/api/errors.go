package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/adapters/sessions"
	"github.com/okian/relocator/internal/domain/gate"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
)

// opError tags an error with the operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	case e.kind == nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *opError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind tags err with op and a sentinel kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns a bare sentinel kind tagged with op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, gate.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidFilter):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, sessions.ErrInvalidID),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gate.ErrInvalidTransition):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, gate.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// publicMessage hides internal details of server-side failures.
func publicMessage(status int, err error) string {
	var ve *gate.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		return http.StatusText(status)
	case status == http.StatusBadGateway:
		return "lead store unavailable, please retry later"
	}
	return err.Error()
}
