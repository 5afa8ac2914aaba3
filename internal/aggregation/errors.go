package aggregation

import "errors"

// Skip reasons. None of them is retried.
var (
	// ErrProductNotFound aborts a recomputation whose product has no master record.
	ErrProductNotFound = errors.New("product master not found")

	// ErrMissingIdentifier marks a change that does not name both a store and a product.
	ErrMissingIdentifier = errors.New("missing store or product identifier")

	// ErrNoRelevantChange marks a master change that left name, category and price alone.
	ErrNoRelevantChange = errors.New("no relevant change")
)

// IsSkip reports whether err is a skip reason rather than a failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, ErrNoRelevantChange)
}
