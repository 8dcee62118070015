package insider

import "errors"

var (
	// ErrMalformedValue is returned when cell text cannot be parsed as the expected type.
	// A malformed row is skipped; it never aborts the document.
	ErrMalformedValue = errors.New("malformed value")

	// ErrTableNotFound is returned when the filer-identity table (or its name link) is absent.
	ErrTableNotFound = errors.New("filer table not found")

	// ErrUnknownSymbol is returned when a CIK has no ticker mapping.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUpstreamFetch wraps failures of the fetch collaborator. The engine never returns it.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)
