package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrDatasetFileMissing  = errors.New("dataset file missing")
	ErrPopulationNotLoaded = errors.New("population tables are empty")
	ErrGraphNotConfigured  = errors.New("graph database not configured")
)
