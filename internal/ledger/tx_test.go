package ledger

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildDeterministic(t *testing.T) {
	mk := func() *Transaction {
		return NewTransaction().
			SetSender("0xsender").
			MoveCall("0xpkg::vault_access::create_vault",
				Object("0xroot"),
				PureU64(1750000000000),
				PureString("estate"),
				PureBool(false),
			)
	}
	a, err := mk().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := mk().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same inputs produced different bytes")
	}
}

func TestBuildRequiresSenderAndCalls(t *testing.T) {
	if _, err := NewTransaction().MoveCall("0x1::m::f", PureString("x")).Build(); err == nil {
		t.Fatalf("expected error without sender")
	}
	if _, err := NewTransaction().SetSender("0xs").Build(); err == nil {
		t.Fatalf("expected error without calls")
	}
	if _, err := NewTransaction().BuildKind(); err == nil {
		t.Fatalf("expected error for empty kind")
	}
}

func TestBuildKindOmitsSender(t *testing.T) {
	withSender, err := NewTransaction().
		SetSender("0xsender").
		MoveCall("0x1::m::f", PureBytes([]byte("id"))).
		BuildKind()
	if err != nil {
		t.Fatalf("build kind: %v", err)
	}
	without, err := NewTransaction().
		MoveCall("0x1::m::f", PureBytes([]byte("id"))).
		BuildKind()
	if err != nil {
		t.Fatalf("build kind: %v", err)
	}
	if !bytes.Equal(withSender, without) {
		t.Fatalf("kind bytes must not depend on sender")
	}
}

func TestPureAddressVector(t *testing.T) {
	good := "0x" + strings.Repeat("ab", 32)
	tx := NewTransaction().SetSender("0xs").
		MoveCall("0x1::m::f", PureAddressVector([]string{good}))
	if _, err := tx.Build(); err != nil {
		t.Fatalf("valid address vector: %v", err)
	}

	bad := NewTransaction().SetSender("0xs").
		MoveCall("0x1::m::f", PureAddressVector([]string{"0x1234"}))
	if _, err := bad.Build(); err == nil {
		t.Fatalf("short address must fail at build")
	}
}

func TestArgErrorDeferredToBuild(t *testing.T) {
	// Adding a malformed arg never panics; the error surfaces at Build with
	// the call target and position.
	tx := NewTransaction().SetSender("0xs").
		MoveCall("0x1::m::f", PureString("ok"), PureAddressVector([]string{"zz"}))
	_, err := tx.Build()
	if err == nil || !strings.Contains(err.Error(), "0x1::m::f") {
		t.Fatalf("got %v, want error naming the call", err)
	}
}
