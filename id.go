package solesub

import "github.com/devlongs/solesub/id"

// ID is the TypeID used for receipts, withdrawals and audit events.
// Credentials use plain sequential uint64 identifiers.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
