package ledger

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	bare "git.sr.ht/~sircmpwn/go-bare"
)

// Argument kinds. The target entry point's declared parameter order must be
// matched exactly by the caller; a mismatch is a programming error, not a
// runtime-recoverable condition.
const (
	argObject uint8 = iota
	argPure
)

// CallArg is one strongly ordered, typed argument to a contract entry point.
type CallArg struct {
	kind   uint8
	object string
	pure   []byte
	err    error // deferred to Build
}

// Object references an on-chain object by id.
func Object(id string) CallArg { return CallArg{kind: argObject, object: id} }

// PureString passes a UTF-8 string value.
func PureString(s string) CallArg { return pureOf(s) }

// PureU64 passes an unsigned 64-bit integer value.
func PureU64(v uint64) CallArg { return pureOf(v) }

// PureBool passes a boolean value.
func PureBool(b bool) CallArg { return pureOf(b) }

// PureBytes passes a raw byte vector.
func PureBytes(b []byte) CallArg { return pureOf(b) }

// PureBytesVector passes a vector of byte vectors.
func PureBytesVector(vs [][]byte) CallArg { return pureOf(vs) }

// PureAddressVector passes a vector of addresses, each decoded from
// 0x-prefixed hex into its 32-byte form.
func PureAddressVector(addrs []string) CallArg {
	bs := make([][]byte, len(addrs))
	for i, a := range addrs {
		raw, err := decodeAddress(a)
		if err != nil {
			return CallArg{err: err}
		}
		bs[i] = raw
	}
	return pureOf(bs)
}

func pureOf(v any) CallArg {
	p := reflect.New(reflect.TypeOf(v))
	p.Elem().Set(reflect.ValueOf(v))
	enc, err := bare.Marshal(p.Interface())
	if err != nil {
		return CallArg{err: err}
	}
	return CallArg{kind: argPure, pure: enc}
}

func decodeAddress(a string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(a, "0x"))
	if err != nil {
		return nil, fmt.Errorf("address %q: %w", a, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address %q: expected 32 bytes, got %d", a, len(raw))
	}
	return raw, nil
}

// ------------------------------
// Transaction
// ------------------------------

// Wire shapes; canonical binary encoding via bare so transaction bytes are
// deterministic for a given sender and call list.
type wireArg struct {
	Kind   uint8
	Object string
	Pure   []byte
}

type wireCall struct {
	Target string
	Args   []wireArg
}

type wireTx struct {
	Version uint8
	Sender  string
	Calls   []wireCall
}

// Transaction accumulates contract entry-point invocations and serializes
// them to canonical bytes for signing or key-service replay.
type Transaction struct {
	sender string
	calls  []wireCall
	err    error
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction { return &Transaction{} }

// SetSender records the submitting address.
func (t *Transaction) SetSender(addr string) *Transaction {
	t.sender = addr
	return t
}

// MoveCall appends one entry-point invocation. The target has the form
// "packageId::module::function"; args must match the declared parameter
// order exactly.
func (t *Transaction) MoveCall(target string, args ...CallArg) *Transaction {
	wc := wireCall{Target: target, Args: make([]wireArg, len(args))}
	for i, a := range args {
		if a.err != nil && t.err == nil {
			t.err = fmt.Errorf("move call %s arg %d: %w", target, i, a.err)
		}
		wc.Args[i] = wireArg{Kind: a.kind, Object: a.object, Pure: a.pure}
	}
	t.calls = append(t.calls, wc)
	return t
}

// Build serializes the full transaction, sender included, for signing and
// submission.
func (t *Transaction) Build() ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if t.sender == "" {
		return nil, fmt.Errorf("transaction has no sender")
	}
	if len(t.calls) == 0 {
		return nil, fmt.Errorf("transaction has no calls")
	}
	return bare.Marshal(&wireTx{Version: 1, Sender: t.sender, Calls: t.calls})
}

// BuildKind serializes only the command payload, without a sender. Used for
// approval transactions that are replayed by key services and never
// submitted to the ledger.
func (t *Transaction) BuildKind() ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if len(t.calls) == 0 {
		return nil, fmt.Errorf("transaction has no calls")
	}
	return bare.Marshal(&wireTx{Version: 1, Calls: t.calls})
}
