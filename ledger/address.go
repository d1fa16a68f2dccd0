package ledger

// Address identifies an account, token, or contract instance on the ledger.
// The zero value means "no address".
type Address string

// ZeroAddress is the absent identity. Transfers to it are always rejected.
const ZeroAddress Address = ""

// IsZero reports whether the address is the absent identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) String() string { return string(a) }
