package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/devlongs/solesub/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ReceiptID", id.NewReceiptID, "rcpt_"},
		{"WithdrawalID", id.NewWithdrawalID, "wdr_"},
		{"AuditID", id.NewAuditID, "aud_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewReceiptID()
	parsed, err := id.Parse(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestParseKeepsPrefix(t *testing.T) {
	parsed, err := id.Parse(id.NewWithdrawalID().String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Prefix() != id.PrefixWithdrawal {
		t.Errorf("expected prefix %q, got %q", id.PrefixWithdrawal, parsed.Prefix())
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := id.NewAuditID()
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded id.ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("mismatch: %q != %q", decoded.String(), original.String())
	}

	var empty id.ID
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("unmarshal of empty string failed: %v", err)
	}
	if !empty.IsNil() {
		t.Error("expected nil after decoding an empty string")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewReceiptID()
	b := id.NewReceiptID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewReceiptID() calls returned the same ID: %q", a.String())
	}
}
