package service

import (
	"errors"

	"github.com/credinica/loan-service/internal/repository"
)

// GenericErrorMessage is shown to users for infrastructure failures.
const GenericErrorMessage = "Ocurrió un error al procesar la solicitud a la base de datos."

// Kind classifies service errors for the transport layer
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error is returned by every service operation that fails. Message is safe to
// show to users; Err keeps the underlying cause for internal errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

var (
	errUnauthenticated = &Error{Kind: KindUnauthorized, Message: "Sesión no válida. Inicie sesión nuevamente."}
	errForbidden       = &Error{Kind: KindForbidden, Message: "No tiene permisos para realizar esta acción."}
)

// fail converts an error coming out of the repository into a service Error.
// Service errors pass through; ErrNotFound becomes a NotFound with missing as
// its message; everything else is logged and reported as Internal.
func (s *Service) fail(err error, op, missing string) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if missing != "" && errors.Is(err, repository.ErrNotFound) {
		return notFound(missing)
	}
	s.log.WithError(err).Errorf("Failed to %s", op)
	return &Error{Kind: KindInternal, Message: GenericErrorMessage, Err: err}
}
