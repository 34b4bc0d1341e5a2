package query

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindGeneration is the zero value so untagged failures map to 500.
	KindGeneration Kind = iota
	KindValidation
	KindInitialization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInitialization:
		return "initialization"
	default:
		return "generation"
	}
}

// EmptyInputMessage is returned to callers whose query is missing or empty.
const EmptyInputMessage = "输入内容为空！"

var ErrEmptyInput = errors.New(EmptyInputMessage)

// Error tags a failure with the kind the HTTP boundary maps to a status code.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func GenerationError(err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Kind: KindGeneration, Err: err}
}

func InitializationError(format string, args ...any) error {
	return &Error{Kind: KindInitialization, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err. Untagged errors are generation failures.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindGeneration
}
