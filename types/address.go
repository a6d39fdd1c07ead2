package types

import "strings"

// Address identifies a party (sender, recipient, administrator) or an asset.
// It is opaque to the ledger; equality is the only operation that matters.
type Address string

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return strings.TrimSpace(string(a)) == "" }

// String implements fmt.Stringer.
func (a Address) String() string { return string(a) }
