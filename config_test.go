package chronovault

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		RPCURL:        "http://rpc",
		PackageID:     "0xpkg",
		AccountRootID: "0xroot",
		ClockID:       "0x6",
		KeyServers:    []string{"http://ks1", "http://ks2"},
		Threshold:     2,
		SessionTTL:    30 * time.Minute,
		AggregatorURL: "http://agg",
		PublisherURL:  "http://pub",
		StorageEpochs: 10,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing package", func(c *Config) { c.PackageID = "" }},
		{"missing account root", func(c *Config) { c.AccountRootID = "" }},
		{"no key servers", func(c *Config) { c.KeyServers = nil }},
		{"threshold above servers", func(c *Config) { c.Threshold = 3 }},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"missing storage urls", func(c *Config) { c.AggregatorURL = "" }},
		{"zero epochs", func(c *Config) { c.StorageEpochs = 0 }},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(&cfg)
		if err := cfg.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CHRONOVAULT_PACKAGE_ID", "0xpkg")
	t.Setenv("CHRONOVAULT_ACCOUNT_ROOT_ID", "0xroot")
	t.Setenv("CHRONOVAULT_KEY_SERVERS", "http://ks1,http://ks2,http://ks3")
	t.Setenv("CHRONOVAULT_AGGREGATOR_URL", "http://agg")
	t.Setenv("CHRONOVAULT_PUBLISHER_URL", "http://pub")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if len(cfg.KeyServers) != 3 {
		t.Fatalf("key servers: %v", cfg.KeyServers)
	}
	if cfg.Threshold != 2 || cfg.SessionTTL != 30*time.Minute || cfg.ClockID != "0x6" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.StorageEpochs != 10 || cfg.MaxFilesPerVault != 50 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestConfigLimitsFallBackToDefaults(t *testing.T) {
	cfg := validConfig()
	if cfg.maxFileSize() != 10<<20 || cfg.maxFilesPerVault() != 50 {
		t.Fatalf("zero limits must fall back: %d, %d", cfg.maxFileSize(), cfg.maxFilesPerVault())
	}
	cfg.MaxFileSize = 1024
	cfg.MaxFilesPerVault = 3
	if cfg.maxFileSize() != 1024 || cfg.maxFilesPerVault() != 3 {
		t.Fatalf("configured limits ignored")
	}
}

func TestVaultStructType(t *testing.T) {
	cfg := validConfig()
	if got := cfg.vaultStructType(); got != "0xpkg::vault_access::VaultPolicy" {
		t.Fatalf("struct type: %q", got)
	}
}
