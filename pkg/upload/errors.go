package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedExtension is returned when the file name does not end in .jpg, .jpeg or .png.
	ErrUnsupportedExtension = errors.New("unsupported file type (allowed: jpg, png, jpeg)")
	// ErrEmptyUpload is returned for zero-byte uploads.
	ErrEmptyUpload = errors.New("uploaded file is empty")
	// ErrTooLarge is returned when the upload exceeds the configured size limit.
	ErrTooLarge = errors.New("uploaded file is too large")
)

// DecodeError reports bytes that are not a valid image of an accepted format.
type DecodeError struct {
	Name  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Name, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// IsDecodeError reports whether err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
