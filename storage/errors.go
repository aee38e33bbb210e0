package storage

import (
	"errors"
	"fmt"
)

// Kind classifies storage failures.
type Kind int

const (
	// KindStructure covers bad arguments, missing nodes or attributes on
	// delete and low level failures opening a file.
	KindStructure Kind = iota + 1
	// KindMissingDataSet is a read against an absent dataset.
	KindMissingDataSet
	// KindMissingFile is a version or gid query against a missing file.
	KindMissingFile
	// KindIncompatible covers shape mismatches on overwrite, foreign files and
	// missing system attributes.
	KindIncompatible
)

var (
	// ErrStructure matches every KindStructure error.
	ErrStructure = errors.New("storage: file structure error")
	// ErrMissingDataSet matches every KindMissingDataSet error.
	ErrMissingDataSet = errors.New("storage: missing data set")
	// ErrMissingFile matches every KindMissingFile error.
	ErrMissingFile = errors.New("storage: missing data file")
	// ErrIncompatible matches every KindIncompatible error.
	ErrIncompatible = errors.New("storage: incompatible file")
)

func (k Kind) sentinel() error {
	switch k {
	case KindStructure:
		return ErrStructure
	case KindMissingDataSet:
		return ErrMissingDataSet
	case KindMissingFile:
		return ErrMissingFile
	case KindIncompatible:
		return ErrIncompatible
	}
	return nil
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every Manager operation.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("storage: %s %s", e.Op, e.Path)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(kind Kind, op, path string, err error) error {
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not a storage error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
