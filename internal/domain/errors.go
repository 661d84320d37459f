package domain

import "errors"

// Error categories surfaced to the upload and delete entry points. Concrete
// causes are joined to them with %w so callers can match with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDuplicateDocument = errors.New("document already exists")
	ErrRead              = errors.New("read error")
	ErrAugmentation      = errors.New("augmentation failure")
	ErrPersistence       = errors.New("persistence failure")
)
