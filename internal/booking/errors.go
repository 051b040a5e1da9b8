package booking

import (
	"errors"
	"fmt"
)

// ErrVoucherNotFound marks voucher codes the validation service rejects.
var ErrVoucherNotFound = errors.New("voucher not found")

// ValidationError reports a selection that violates a restriction, a stay
// bound, or a capacity rule. Always recoverable by prompting a new selection.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// UnresolvedCapacityError reports that no room, with or without extra beds,
// fits the requested party size. A hard stop for the caller, never silently
// clamped.
type UnresolvedCapacityError struct {
	Adults int
}

func (e UnresolvedCapacityError) Error() string {
	return fmt.Sprintf("no room can accommodate %d guests", e.Adults)
}

// UpstreamFetchError reports an unreachable or non-2xx upstream service. The
// engine performs no retries; the caller decides what to do.
type UpstreamFetchError struct {
	Service string
	Status  int
	Err     error
}

func (e UpstreamFetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s service returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s service unreachable: %v", e.Service, e.Err)
}

func (e UpstreamFetchError) Unwrap() error {
	return e.Err
}
