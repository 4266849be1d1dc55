// Package apperr define a taxonomia de erros compartilhada pelos serviços.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: id de evento/aposta desconhecido
	ErrNotFound = errors.New("not found")
	// ErrUnavailable: colaborador inacessível ou timeout após esgotar as tentativas
	ErrUnavailable = errors.New("unavailable")
	// ErrConflictIgnored: outro chamador resolveu o evento primeiro.
	// Absorvido pelo resolver com uma releitura, nunca chega ao cliente.
	ErrConflictIgnored = errors.New("outcome already assigned by a concurrent caller")
)

// ValidationError rejeita a requisição com um motivo legível
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reporta se err (ou algo que ele embrulha) é um ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
