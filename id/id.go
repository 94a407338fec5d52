// Package id defines TypeID-based identifiers for the solesub records that
// need globally unique, sortable keys: fee receipts, withdrawals and audit
// events. Credentials themselves use a dense integer sequence instead.
//
// IDs are K-sortable (UUIDv7-based) and URL-safe in the format "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

const (
	PrefixReceipt    Prefix = "rcpt" // Fee receipt
	PrefixWithdrawal Prefix = "wdr"  // Balance withdrawal
	PrefixAudit      Prefix = "aud"  // Audit event
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "rcpt_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ReceiptID identifies a fee receipt (prefix: "rcpt").
type ReceiptID = ID

// WithdrawalID identifies a balance withdrawal (prefix: "wdr").
type WithdrawalID = ID

// AuditID identifies an audit event (prefix: "aud").
type AuditID = ID

// NewReceiptID generates a new receipt ID.
func NewReceiptID() ID { return New(PrefixReceipt) }

// NewWithdrawalID generates a new withdrawal ID.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewAuditID generates a new audit event ID.
func NewAuditID() ID { return New(PrefixAudit) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
