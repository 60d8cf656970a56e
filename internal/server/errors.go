package server

import (
	"errors"
	"net/http"

	"github.com/critterchain/critterchain/internal/core/critter"
	"github.com/critterchain/critterchain/internal/core/safemath"
)

// API error codes, one per engine failure kind.
const (
	CodeNotOwner           = "E_NOT_OWNER"
	CodeNotAuthorized      = "E_NOT_AUTHORIZED"
	CodeNotOwnerOrOperator = "E_NOT_OWNER_OR_OPERATOR"
	CodeCooldown           = "E_COOLDOWN"
	CodeLevelTooLow        = "E_LEVEL_TOO_LOW"
	CodeInsufficientFee    = "E_INSUFFICIENT_FEE"
	CodeStarterClaimed     = "E_STARTER_CLAIMED"
	CodeUnknownCritter     = "E_UNKNOWN_CRITTER"
	CodeDuplicateCritter   = "E_DUPLICATE_CRITTER"
	CodeZeroAddress        = "E_ZERO_ADDRESS"
	CodeOverflow           = "E_OVERFLOW"
	CodeUnderflow          = "E_UNDERFLOW"
	CodeDivisionByZero     = "E_DIVISION_BY_ZERO"
	CodeBadRequest         = "E_BAD_REQUEST"
	CodeInternal           = "E_INTERNAL"
)

var errCodes = []struct {
	err    error
	code   string
	status int
}{
	{critter.ErrNotOwner, CodeNotOwner, http.StatusForbidden},
	{critter.ErrNotAuthorized, CodeNotAuthorized, http.StatusForbidden},
	{critter.ErrNotOwnerOrOperator, CodeNotOwnerOrOperator, http.StatusForbidden},
	{critter.ErrCooldown, CodeCooldown, http.StatusConflict},
	{critter.ErrLevelTooLow, CodeLevelTooLow, http.StatusConflict},
	{critter.ErrInsufficientFee, CodeInsufficientFee, http.StatusConflict},
	{critter.ErrStarterClaimed, CodeStarterClaimed, http.StatusConflict},
	{critter.ErrUnknownCritter, CodeUnknownCritter, http.StatusNotFound},
	{critter.ErrDuplicateCritter, CodeDuplicateCritter, http.StatusConflict},
	{critter.ErrZeroAddress, CodeZeroAddress, http.StatusBadRequest},
	{safemath.ErrOverflow, CodeOverflow, http.StatusUnprocessableEntity},
	{safemath.ErrUnderflow, CodeUnderflow, http.StatusUnprocessableEntity},
	{safemath.ErrDivisionByZero, CodeDivisionByZero, http.StatusUnprocessableEntity},
}

// mapError resolves an engine error to its API code and HTTP status.
func mapError(err error) (string, int) {
	for _, m := range errCodes {
		if errors.Is(err, m.err) {
			return m.code, m.status
		}
	}
	return CodeInternal, http.StatusInternalServerError
}
