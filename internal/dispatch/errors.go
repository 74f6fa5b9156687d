package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoApplicableSpecialization: no implementation accepts the argument types.
	ErrNoApplicableSpecialization = errors.New("no applicable specialization")
	// ErrAmbiguousDispatch: several implementations tie at the minimal distance.
	ErrAmbiguousDispatch = errors.New("ambiguous dispatch")
	// ErrStaleKey: a key outside the table shape reached Find.
	ErrStaleKey = errors.New("stale dispatch key")
	// ErrArity: the number of dispatched arguments does not match the method.
	ErrArity = errors.New("wrong number of dispatched arguments")
	// ErrRegistryMismatch: an argument was boxed by another registry.
	ErrRegistryMismatch = errors.New("argument from a foreign registry")
)

// NoApplicableError reports an absent cell.
type NoApplicableError struct {
	Method string
	Types  []string
}

func (e *NoApplicableError) Error() string {
	return fmt.Sprintf("%s(%s): %v", e.Method, strings.Join(e.Types, ", "), ErrNoApplicableSpecialization)
}

func (e *NoApplicableError) Unwrap() error { return ErrNoApplicableSpecialization }

// AmbiguousError is returned every time an ambiguous cell is called.
type AmbiguousError struct {
	Method     string
	Types      []string
	Candidates []string
	Distance   int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s(%s): %v between %s at distance %d",
		e.Method, strings.Join(e.Types, ", "), ErrAmbiguousDispatch, strings.Join(e.Candidates, ", "), e.Distance)
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguousDispatch }

// StaleKeyError is the panic value raised when Find gets a key the table
// shape does not cover. It means a tag was used that the table's registry
// snapshot does not know, which callers going through Invoke never do.
type StaleKeyError struct {
	Method string
	Key    Key
	Shape  []int
}

func (e *StaleKeyError) Error() string {
	return fmt.Sprintf("%s: %v: key %v outside table shape %v", e.Method, ErrStaleKey, e.Key, e.Shape)
}

func (e *StaleKeyError) Unwrap() error { return ErrStaleKey }

// ArityError reports a call with the wrong number of dispatched arguments.
type ArityError struct {
	Method string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: %v: want %d, got %d", e.Method, ErrArity, e.Want, e.Got)
}

func (e *ArityError) Unwrap() error { return ErrArity }

// RegistryMismatchError reports an argument boxed outside the position's registry.
type RegistryMismatchError struct {
	Method   string
	Position int
	Want     string
	Got      string
}

func (e *RegistryMismatchError) Error() string {
	return fmt.Sprintf("%s: %v at position %d: want registry %q, got %q", e.Method, ErrRegistryMismatch, e.Position, e.Want, e.Got)
}

func (e *RegistryMismatchError) Unwrap() error { return ErrRegistryMismatch }
