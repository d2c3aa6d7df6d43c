package apl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures.
type ErrorKind string

const (
	// KindIO covers an unavailable backend: disk, network, permissions.
	KindIO ErrorKind = "Io"
	// KindCorrupt means persisted data does not parse as the expected layout.
	KindCorrupt ErrorKind = "Corrupt"
)

var (
	// ErrIO matches any StoreError of kind KindIO via errors.Is.
	ErrIO = errors.New("apl: io error")
	// ErrCorrupt matches any StoreError of kind KindCorrupt via errors.Is.
	ErrCorrupt = errors.New("apl: corrupt store")
	// ErrInvalidRecord is returned by Set for records missing required fields.
	ErrInvalidRecord = errors.New("apl: invalid record")
)

// StoreError is returned by store variants for backend failures.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("apl %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("apl %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels by kind.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	}
	return false
}

// IOError wraps err as a KindIO failure of op.
func IOError(op string, err error) error {
	return &StoreError{Kind: KindIO, Op: op, Err: err}
}

// CorruptError wraps err as a KindCorrupt failure of op.
func CorruptError(op string, err error) error {
	return &StoreError{Kind: KindCorrupt, Op: op, Err: err}
}

func invalidRecord(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, reason)
}
