package analysis

import "errors"

// Sentinel errors. Transports map these onto status codes with errors.Is.
var (
	// ErrValidation covers missing or contradictory request input, for
	// example neither contract_code nor contract_file supplied.
	ErrValidation = errors.New("validation error")

	// ErrUnknownTool is returned by registry lookups for unregistered ids.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNotFound is returned by the store for unknown analysis ids.
	ErrNotFound = errors.New("analysis result not found")
)
