// Package id defines the TypeIDs carried by lifecycle events and transfer
// receipts.
//
// Streams are keyed by the ledger's sequential allocator; only the artefacts
// the ledger emits get a TypeID ("sevt_..." for events, "xfer_..." for
// receipts).
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix is the type tag encoded in an ID.
type Prefix string

const (
	PrefixEvent    Prefix = "sevt"
	PrefixTransfer Prefix = "xfer"
)

// ID wraps a TypeID. The zero value is the nil ID and renders as "".
type ID struct {
	inner typeid.TypeID
	valid bool
}

// EventID identifies a stream lifecycle event.
type EventID = ID

// TransferID identifies a token transfer receipt.
type TransferID = ID

// New generates an ID under prefix. An invalid prefix is a programming
// error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewEventID() EventID       { return New(PrefixEvent) }
func NewTransferID() TransferID { return New(PrefixTransfer) }

func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText renders the ID for JSON event payloads.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
