package txstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateID is returned by Add when the id is already in the index
	ErrDuplicateID = errors.New("duplicate transaction id")
	// ErrNotFound is returned when there's no (live) transaction with a given id
	ErrNotFound = errors.New("transaction not found")
	// ErrMalformedID is returned when id string is not a valid uuid
	ErrMalformedID = errors.New("malformed transaction id")
	// ErrIO wraps file open / read / write / seek errors
	ErrIO = errors.New("i/o failure")
	// ErrCorruptIndex is reported when index file is shorter than its declared count
	ErrCorruptIndex = errors.New("corrupt index file")
	// ErrCorruptRecord is returned when bytes in data file can't be decoded
	ErrCorruptRecord = errors.New("corrupt record")
)

// ioErr wraps err so that errors.Is() matches both ErrIO and err
func ioErr(op string, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", ErrIO, op, path, err)
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ParseID parses a transaction id in standard uuid form
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: '%s'", ErrMalformedID, s)
	}
	return id, nil
}
