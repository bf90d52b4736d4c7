package regafi

import "github.com/rotisserie/eris"

// Extraction failure taxonomy. Every error here is fatal to the firm being
// processed but never to the batch: callers log, count and move on.
var (
	// ErrMissingDescription means the firm-description region was not found
	// in the fragment.
	ErrMissingDescription = eris.New("regafi: description region not found")
	// ErrCIBMismatch means the CIB printed on the page differs from the one
	// the fragment was fetched for.
	ErrCIBMismatch = eris.New("regafi: extracted cib does not match requested cib")
	// ErrUnknownCategory means the firm-type label is not in the category
	// table. Reported, never silently ignored.
	ErrUnknownCategory = eris.New("regafi: unknown firm category")
	// ErrExemptCategory marks firms documented as exempt and intentionally
	// excluded from the dataset.
	ErrExemptCategory = eris.New("regafi: exempt category, firm skipped")
	// ErrGridSize means the services grid had a different cell count than the
	// traversal order declares.
	ErrGridSize = eris.New("regafi: unexpected services grid size")
	// ErrMissingServicesTable means the services grid table was not found
	// where the category requires one.
	ErrMissingServicesTable = eris.New("regafi: services table not found")
)
