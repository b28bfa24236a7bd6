package main

import (
	"errors"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/scholar"
)

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing workspace, invalid values)
	ExitDataError   = 3 // Data error (malformed journal, invalid filters)

	// Backend exit codes
	ExitNotFound  = 4 // Author or table not found
	ExitAuthError = 5 // Missing or invalid SGRAPH_API_KEY
	ExitAPIError  = 6 // API error (rate limit, network, bad response)
)

// exitCodeFor maps an expansion or backend error to an exit code.
func exitCodeFor(err error) int {
	var (
		fe     *graph.FilterError
		apiErr *scholar.APIError
	)
	switch {
	case errors.As(err, &fe):
		return ExitDataError
	case scholar.IsNotFound(err):
		return ExitNotFound
	case scholar.IsAuthError(err):
		return ExitAuthError
	case errors.Is(err, scholar.ErrInvalidRequest):
		return ExitError
	case scholar.IsRateLimited(err),
		errors.Is(err, scholar.ErrNetworkError),
		errors.Is(err, scholar.ErrInvalidResponse),
		errors.As(err, &apiErr):
		return ExitAPIError
	default:
		return ExitError
	}
}
