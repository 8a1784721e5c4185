package serialization

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrNegativeOffset     = errors.New("negative tensor offset or size")
	ErrSizeMismatch       = errors.New("tensor size does not match its shape")
	ErrDuplicateTensor    = errors.New("duplicate tensor name")
)
