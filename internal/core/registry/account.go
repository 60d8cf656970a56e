package registry

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Account is a base58 ledger address. The zero value is the null
// account, which can never own anything.
type Account string

// Null is the null account. Mint notifications use it as the sender and
// transfers to it are refused.
const Null Account = ""

// ParseAccount validates an address string supplied at the API
// boundary. Engine internals accept Account values as-is.
func ParseAccount(s string) (Account, error) {
	if s == "" {
		return Null, fmt.Errorf("empty account address")
	}
	if _, err := base58.Decode(s); err != nil {
		return Null, fmt.Errorf("account address %q: %w", s, err)
	}
	return Account(s), nil
}

func (a Account) String() string { return string(a) }

// IsNull reports whether a is the null account.
func (a Account) IsNull() bool { return a == Null }
