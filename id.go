package streamledger

import "github.com/xraph/streamledger/id"

// ID identifies events and transfer receipts emitted by the ledger.
type ID = id.ID
