package chronovault

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/chronovault/chronovault-go/internal/types"
)

// Config locates the three external systems (ledger RPC, key services,
// storage network) and the deployed contract objects. All values can be
// loaded from CHRONOVAULT_* environment variables.
type Config struct {
	// Ledger.
	RPCURL        string `envconfig:"RPC_URL" default:"https://fullnode.testnet.sui.io:443"`
	PackageID     string `envconfig:"PACKAGE_ID"`
	AccountRootID string `envconfig:"ACCOUNT_ROOT_ID"`
	ClockID       string `envconfig:"CLOCK_ID" default:"0x6"`

	// Key services. Threshold is the minimum quorum that must approve a
	// decryption; the default of 2 tolerates one key-service outage while
	// still requiring multi-party approval.
	KeyServers []string      `envconfig:"KEY_SERVERS"`
	Threshold  int           `envconfig:"THRESHOLD" default:"2"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// Storage network.
	AggregatorURL    string `envconfig:"AGGREGATOR_URL"`
	PublisherURL     string `envconfig:"PUBLISHER_URL"`
	StoragePackageID string `envconfig:"STORAGE_PACKAGE_ID"`
	StorageObjectID  string `envconfig:"STORAGE_OBJECT_ID"`
	StorageEpochs    uint64 `envconfig:"STORAGE_EPOCHS" default:"10"`
	StorageDeletable bool   `envconfig:"STORAGE_DELETABLE" default:"false"`

	// Name service registry for @alias resolution; optional.
	NameRegistryID string `envconfig:"NAME_REGISTRY_ID"`

	// Upload limits.
	MaxFileSize      int64 `envconfig:"MAX_FILE_SIZE" default:"10485760"`
	MaxFilesPerVault int   `envconfig:"MAX_FILES_PER_VAULT" default:"50"`
}

// ConfigFromEnv loads configuration from CHRONOVAULT_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("chronovault", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.PackageID == "" {
		return fmt.Errorf("package id is required")
	}
	if c.AccountRootID == "" {
		return fmt.Errorf("account root id is required")
	}
	if len(c.KeyServers) == 0 {
		return fmt.Errorf("at least one key server is required")
	}
	if c.Threshold < 1 || c.Threshold > len(c.KeyServers) {
		return fmt.Errorf("threshold %d out of range for %d key servers", c.Threshold, len(c.KeyServers))
	}
	if c.AggregatorURL == "" || c.PublisherURL == "" {
		return fmt.Errorf("storage aggregator and publisher urls are required")
	}
	if c.StorageEpochs == 0 {
		return fmt.Errorf("storage epochs must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// vaultStructType is the on-chain type of vault policy objects.
func (c Config) vaultStructType() string {
	return c.PackageID + "::vault_access::VaultPolicy"
}

func (c Config) maxFileSize() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return types.DefaultMaxFileSize
}

func (c Config) maxFilesPerVault() int {
	if c.MaxFilesPerVault > 0 {
		return c.MaxFilesPerVault
	}
	return types.DefaultMaxFilesPerVault
}
