package chronovault

import (
	"fmt"
	"time"

	"github.com/chronovault/chronovault-go/internal/ledger"
)

// ParseVaultObject builds the vault view model from one raw ledger object.
// Pure and side-effect free: no network, no crypto; calling it twice on the
// same object yields identical values. Absent fields degrade (missing
// unlock time means no lock, missing file list means empty), but an object
// that is not a vault at all fails with ErrSchemaMismatch instead of
// producing silently wrong values.
func ParseVaultObject(obj *ledger.ObjectData) (*VaultType, error) {
	if obj == nil || obj.DataType != "moveObject" || obj.Fields == nil {
		return nil, fmt.Errorf("%w: not a move object", ErrSchemaMismatch)
	}
	f := obj.Fields

	v := &VaultType{
		ID:          obj.ObjectID,
		Title:       decodeBytesField(f["vault_name"]),
		Description: decodeBytesField(f["description"]),
		Owner:       stringField(f["owner"]),
	}
	if v.Owner == "" {
		v.Owner = obj.Owner
	}
	if ms := u64Field(f["created_at"]); ms > 0 {
		v.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if ms := u64Field(f["unlock_time"]); ms > 0 {
		v.UnlockAt = time.UnixMilli(ms).UTC()
	}

	if raw, ok := f["authorized_addresses"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				v.AuthorizedAddresses = append(v.AuthorizedAddresses, s)
			}
		}
	}

	if raw, ok := f["files"].([]any); ok {
		for i, entry := range raw {
			fields := nestedFields(entry)
			if fields == nil {
				return nil, fmt.Errorf("%w: file entry %d", ErrSchemaMismatch, i)
			}
			file := VaultFile{
				Name:   decodeBytesField(fields["file_identifier"]),
				SealID: decodeBytesField(fields["seal_id"]),
				BlobID: decodeBytesField(fields["blob_id"]),
			}
			if file.Name == "" {
				file.Name = fmt.Sprintf("File %d", i+1)
			}
			v.Files = append(v.Files, file)
		}
	}

	if raw, ok := f["custody_trail"].([]any); ok {
		for i, entry := range raw {
			fields := nestedFields(entry)
			if fields == nil {
				return nil, fmt.Errorf("%w: custody record %d", ErrSchemaMismatch, i)
			}
			rec := CustodyRecord{
				Custodian:         stringField(fields["custodian"]),
				TransactionDigest: stringField(fields["transaction_digest"]),
			}
			if ms := u64Field(fields["transferred_at"]); ms > 0 {
				rec.TransferredAt = time.UnixMilli(ms).UTC()
			}
			v.CustodyTrail = append(v.CustodyTrail, rec)
		}
	}
	return v, nil
}

// nestedFields unwraps the {type, fields: {...}} shape of nested records.
func nestedFields(entry any) map[string]any {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := m["fields"].(map[string]any); ok {
		return inner
	}
	return m
}

// decodeBytesField turns a byte-array field (JSON number array or string)
// into its UTF-8 string form.
func decodeBytesField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		b := make([]byte, 0, len(t))
		for _, e := range t {
			if n, ok := e.(float64); ok {
				b = append(b, byte(n))
			}
		}
		return string(b)
	default:
		return ""
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// u64Field decodes a u64 that the RPC layer renders as either a decimal
// string or a JSON number.
func u64Field(v any) int64 {
	switch t := v.(type) {
	case string:
		var n int64
		if _, err := fmt.Sscanf(t, "%d", &n); err == nil && n > 0 {
			return n
		}
	case float64:
		if t > 0 {
			return int64(t)
		}
	}
	return 0
}

