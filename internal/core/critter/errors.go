package critter

import "errors"

// Domain errors shared by the registry and engine services. Every error
// aborts its operation with no partial mutation; callers resubmit after
// the violated condition clears.
var (
	// Authorization errors

	ErrNotOwner           = errors.New("caller does not own the critter")
	ErrNotAuthorized      = errors.New("caller not authorized for this action")
	ErrNotOwnerOrOperator = errors.New("caller is neither owner nor operator")

	// Precondition errors

	ErrCooldown        = errors.New("critter is cooling down")
	ErrLevelTooLow     = errors.New("critter level too low")
	ErrInsufficientFee = errors.New("payment below required fee")
	ErrStarterClaimed  = errors.New("account already claimed its starter critter")

	// Integrity errors

	ErrUnknownCritter  = errors.New("unknown critter id")
	ErrDuplicateCritter = errors.New("critter id already owned")
	ErrZeroAddress     = errors.New("destination is the null account")
)

// IsAuthorization reports whether err belongs to the authorization
// family.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrNotOwnerOrOperator)
}

// IsPrecondition reports whether err belongs to the precondition family.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrCooldown) ||
		errors.Is(err, ErrLevelTooLow) ||
		errors.Is(err, ErrInsufficientFee) ||
		errors.Is(err, ErrStarterClaimed)
}

// IsIntegrity reports whether err belongs to the integrity family.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrUnknownCritter) ||
		errors.Is(err, ErrDuplicateCritter) ||
		errors.Is(err, ErrZeroAddress)
}
