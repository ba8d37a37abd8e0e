package catalog

import "errors"

var (
	// ErrValidation is bad input at the store boundary, e.g. an empty name.
	ErrValidation = errors.New("validation error")
	// ErrIO means a file could not be read or written.
	ErrIO = errors.New("io error")
	// ErrParse means a backup file is not a structured document at all.
	ErrParse = errors.New("parse error")
	// ErrEncoding means a payload cannot be decoded as the expected binary format.
	ErrEncoding = errors.New("encoding error")

	ErrNotFound = errors.New("product not found")
)
