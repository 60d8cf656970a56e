package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// Sentinel errors matching the server's refusal codes. Use errors.Is;
// the wrapped *APIError keeps the raw code and request id.
var (
	ErrNotOwner           = errors.New("caller does not own the critter")
	ErrNotAuthorized      = errors.New("caller is not authorized")
	ErrNotOwnerOrOperator = errors.New("caller is neither owner nor approved")
	ErrCooldown           = errors.New("critter is cooling down")
	ErrLevelTooLow        = errors.New("critter level too low")
	ErrInsufficientFee    = errors.New("payment below the fee")
	ErrStarterClaimed     = errors.New("starter critter already claimed")
	ErrUnknownCritter     = errors.New("unknown critter")
	ErrZeroAddress        = errors.New("null account")
	ErrBadRequest         = errors.New("malformed request")
)

var codeErrors = map[string]error{
	"E_NOT_OWNER":             ErrNotOwner,
	"E_NOT_AUTHORIZED":        ErrNotAuthorized,
	"E_NOT_OWNER_OR_OPERATOR": ErrNotOwnerOrOperator,
	"E_COOLDOWN":              ErrCooldown,
	"E_LEVEL_TOO_LOW":         ErrLevelTooLow,
	"E_INSUFFICIENT_FEE":      ErrInsufficientFee,
	"E_STARTER_CLAIMED":       ErrStarterClaimed,
	"E_UNKNOWN_CRITTER":       ErrUnknownCritter,
	"E_ZERO_ADDRESS":          ErrZeroAddress,
	"E_BAD_REQUEST":           ErrBadRequest,
}

// APIError is one refusal as the server reported it.
type APIError struct {
	Code      string
	Message   string
	RequestID string
	Status    int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, http.StatusText(e.Status), e.Message)
}

// Unwrap maps the code onto its sentinel so errors.Is works across the
// wire.
func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Code == "" {
		return &APIError{
			Code:    "E_INTERNAL",
			Message: http.StatusText(resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}
	return &APIError{
		Code:      body.Error.Code,
		Message:   body.Error.Message,
		RequestID: body.RequestID,
		Status:    resp.StatusCode,
	}
}
