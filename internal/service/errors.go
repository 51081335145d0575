package service

import "errors"

var (
	// ErrContactNotFound is returned when the enrichment provider has no match for the identifier.
	ErrContactNotFound = errors.New("no enrichment data found")
	// ErrUpstream is returned when the enrichment provider or the model could not be reached or failed.
	ErrUpstream = errors.New("upstream service failed")
	// ErrExtraction is returned when the model answered but its output could not be parsed.
	ErrExtraction = errors.New("failed to parse model output")
)
