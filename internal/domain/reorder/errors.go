package reorder

import "errors"

// Sentinel kinds for reorder errors.
var (
	ErrOrderingDisabled = errors.New("ordering is disabled")
	ErrSwapFailed       = errors.New("swap failed")
)
