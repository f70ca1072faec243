// Package errcode defines the integer error taxonomy shared by every layer of povms.
//
// Codes travel on the wire (the MERR key of a result object carries the code a
// handler returned), so their numeric values are part of the protocol and must
// never be renumbered. A Code implements error, which lets it flow through the
// usual Go error plumbing:
//
//	if err := obj.Set(key, attr); errors.Is(err, errcode.NotNow) {
//		// object is being walked, retry later
//	}
//
// Negative codes are failures, zero is success and small positive codes are
// status values ("false", "not now", "queue full") that callers usually expect.
package errcode

import (
	"errors"
	"fmt"
)

// Code is a povms error code
type Code int32

const (
	NoErr            Code = 0
	Param            Code = -1
	MemFull          Code = -2
	InvalidDataSize  Code = -3
	CannotHandleData Code = -4
	NullPointer      Code = -5
	ObjectAccess     Code = -15
	Version          Code = -16
	DataType         Code = -19
	Timeout          Code = -20
	InvalidContext   Code = -21
	IncompleteData   Code = -22

	False     Code = 1
	OutOfSync Code = 2
	QueueFull Code = 3

	// NotNow shares its value with OutOfSync
	NotNow = OutOfSync
)

var names = map[Code]string{
	NoErr:            "no error",
	Param:            "invalid parameter",
	MemFull:          "out of memory",
	InvalidDataSize:  "invalid data size",
	CannotHandleData: "cannot handle data",
	NullPointer:      "null pointer",
	ObjectAccess:     "object access",
	Version:          "version mismatch",
	DataType:         "data type mismatch",
	Timeout:          "timeout",
	InvalidContext:   "invalid context",
	IncompleteData:   "incomplete data",
	False:            "false",
	OutOfSync:        "not now / out of sync",
	QueueFull:        "queue full",
}

// Error implements the error interface
func (c Code) Error() string {
	if name, ok := names[c]; ok {
		return fmt.Sprintf("povms: %s (%d)", name, int32(c))
	}
	return fmt.Sprintf("povms: error %d", int32(c))
}

// String returns the short name of the code
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

// Of extracts the Code from an error chain.
// It returns NoErr for a nil error and ObjectAccess for errors that carry no Code.
func Of(err error) Code {
	if err == nil {
		return NoErr
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return ObjectAccess
}

// FromInt converts a code read from the wire back to an error.
// NoErr yields nil so the result can be returned directly.
func FromInt(v int32) error {
	if Code(v) == NoErr {
		return nil
	}
	return Code(v)
}

// Wrap annotates a code with context while keeping it detectable via errors.Is
func Wrap(c Code, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), c)
}
