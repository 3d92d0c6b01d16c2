package types

import (
	"errors"
	"strings"
	"testing"
)

func validRequest() CreateVaultRequest {
	return CreateVaultRequest{
		Name:       "estate",
		Files:      []FileInput{{Name: "will.pdf", Data: []byte("x")}},
		UnlockTime: 1750000000000,
	}
}

func TestValidateCreateVaultAccepts(t *testing.T) {
	if err := ValidateCreateVault(validRequest(), DefaultMaxFileSize, DefaultMaxFilesPerVault); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateCreateVaultRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateVaultRequest)
	}{
		{"empty name", func(r *CreateVaultRequest) { r.Name = "  " }},
		{"no files", func(r *CreateVaultRequest) { r.Files = nil }},
		{"negative unlock", func(r *CreateVaultRequest) { r.UnlockTime = -1 }},
		{"no lock no allowlist", func(r *CreateVaultRequest) {
			r.UnlockTime = 0
			r.AuthorizedAddresses = nil
		}},
		{"empty file name", func(r *CreateVaultRequest) { r.Files[0].Name = "" }},
		{"empty file data", func(r *CreateVaultRequest) { r.Files[0].Data = nil }},
		{"bad address", func(r *CreateVaultRequest) { r.AuthorizedAddresses = []string{"0x123"} }},
	}
	for _, tc := range cases {
		req := validRequest()
		tc.mutate(&req)
		err := ValidateCreateVault(req, DefaultMaxFileSize, DefaultMaxFilesPerVault)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: got %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestValidateCreateVaultAllowListOnly(t *testing.T) {
	req := validRequest()
	req.UnlockTime = 0
	req.AuthorizedAddresses = []string{"0x" + strings.Repeat("ab", 32), "@heir"}
	if err := ValidateCreateVault(req, DefaultMaxFileSize, DefaultMaxFilesPerVault); err != nil {
		t.Fatalf("allow-list-only vault rejected: %v", err)
	}
}

func TestValidateCreateVaultLimits(t *testing.T) {
	req := validRequest()
	req.Files[0].Data = make([]byte, 11)
	if err := ValidateCreateVault(req, 10, DefaultMaxFilesPerVault); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversize file: got %v", err)
	}

	req = validRequest()
	req.Files = []FileInput{
		{Name: "a", Data: []byte("x")},
		{Name: "b", Data: []byte("x")},
	}
	if err := ValidateCreateVault(req, DefaultMaxFileSize, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("too many files: got %v", err)
	}
}

func TestIsAddress(t *testing.T) {
	good := "0x" + strings.Repeat("0f", 32)
	if !IsAddress(good) {
		t.Fatalf("valid address rejected")
	}
	for _, bad := range []string{"", "0x", "0x123", strings.Repeat("0f", 32), "@alice"} {
		if IsAddress(bad) {
			t.Fatalf("%q accepted as address", bad)
		}
	}
	if !IsNameAlias("@alice") || IsNameAlias("alice") {
		t.Fatalf("alias detection broken")
	}
}
