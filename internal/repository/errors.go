package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the root of every argument error returned by repositories.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNilDocument is returned when Save receives no document.
	ErrNilDocument = fmt.Errorf("%w: Document cannot be null", ErrInvalidArgument)

	// ErrDocumentNotFound is returned when Save receives an id that is not stored.
	ErrDocumentNotFound = fmt.Errorf("%w: document not found", ErrInvalidArgument)
)

// DocumentNotFound wraps ErrDocumentNotFound with the offending id.
func DocumentNotFound(id string) error {
	return fmt.Errorf("%w: id %q", ErrDocumentNotFound, id)
}
