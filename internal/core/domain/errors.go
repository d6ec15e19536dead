package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCategory     = errors.New("unknown category")
	ErrUnknownUnit         = errors.New("unknown unit")
	ErrInvalidNumericInput = errors.New("invalid numeric input")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrTemporary           = errors.New("temporary failure")

	// ErrResultOutOfRange is carried as the cause of an ErrInvalidNumericInput
	// when a finite input converts to a value float64 cannot hold.
	ErrResultOutOfRange = errors.New("result out of range")
	// ErrPasswordTooLong is carried as the cause of an ErrInvalidInput.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

const quoteLimit = 64

// Clip cuts user input to quoteLimit runes so a log line stays bounded.
func Clip(s string) string {
	r := []rune(s)
	if len(r) <= quoteLimit {
		return s
	}
	return string(r[:quoteLimit]) + "..."
}

// Quote renders user input for error text, cut to quoteLimit runes.
func Quote(s string) string {
	r := []rune(s)
	if len(r) <= quoteLimit {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q...", string(r[:quoteLimit]))
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsInputError reports whether err is a recoverable user input error.
func IsInputError(err error) bool {
	return IsKind(err, ErrUnknownCategory) ||
		IsKind(err, ErrUnknownUnit) ||
		IsKind(err, ErrInvalidNumericInput) ||
		IsKind(err, ErrInvalidInput)
}

// UserMessage is the text shown to a person for err. Unexpected failures get a
// generic message so storage details never reach the form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrUnknownCategory):
		return "Unknown category. Pick one of the listed categories."
	case IsKind(err, ErrUnknownUnit):
		return "Unknown unit. " + detail(err)
	case IsKind(err, ErrResultOutOfRange):
		return "Result is out of range. Try a smaller value."
	case IsKind(err, ErrInvalidNumericInput):
		return "Please enter a numeric value."
	case IsKind(err, ErrPasswordTooLong):
		return "Password is too long (at most 72 bytes)."
	case IsKind(err, ErrInvalidInput):
		return "Please fill all fields."
	case IsKind(err, ErrUsernameTaken):
		return "Username already exists."
	case IsKind(err, ErrUnauthorized):
		return "Invalid username or password."
	case IsKind(err, ErrTemporary):
		return "Service is temporarily unavailable, try again."
	default:
		return "Unexpected error, please try again."
	}
}

// detail returns the innermost cause message of a WrapError chain.
func detail(err error) string {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			causes := e.Unwrap()
			if len(causes) == 0 {
				return err.Error()
			}
			err = causes[len(causes)-1]
		case interface{ Unwrap() error }:
			next := e.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}
