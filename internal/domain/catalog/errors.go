package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrEmptyCatalog  = errors.New("catalog has no regions")
	ErrInvalidRegion = errors.New("invalid region")
	ErrDuplicateID   = errors.New("duplicate region id")
	ErrLoadCatalog   = errors.New("load catalog failed")
)
