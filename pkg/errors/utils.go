package errors

import (
	"errors"
)

func New(msg string) error {
	return errors.New(msg)
}

func Is(err, target error) bool {
	if err == nil && target == nil {
		return false
	}
	return errors.Is(err, target)
}

func As[T error](err error, target *T) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// GetErrorCode returns the code of the outermost coded error in the chain.
func GetErrorCode(err error) Code {
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return ""
}

// DetailOf walks the chain and returns the first detail stored under key.
func DetailOf(err error, key string) (any, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if v, found := e.Detail(key); found {
				return v, true
			}
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}
