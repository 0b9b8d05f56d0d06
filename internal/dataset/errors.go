package dataset

import "errors"

// Domain-specific errors for dataset storage.
var (
	// ErrDatasetNotFound is returned when appending to an unknown handle.
	ErrDatasetNotFound = errors.New("dataset: not found")

	// ErrRowShape is returned when a row does not have one value per column.
	ErrRowShape = errors.New("dataset: row does not match columns")

	// ErrInvalidName is returned when creating a dataset without a name.
	ErrInvalidName = errors.New("dataset: name is required")
)
