package chronovault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vaultsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chronovault_client",
			Name:      "vaults_created_total",
			Help:      "Vault creations confirmed on the ledger.",
		},
	)

	vaultCreateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronovault_client",
			Name:      "vault_create_failures_total",
			Help:      "Vault creations that failed, by stage.",
		},
		[]string{"stage"},
	)

	filesEncryptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chronovault_client",
			Name:      "files_encrypted_total",
			Help:      "Files encrypted during vault creation.",
		},
	)

	decryptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chronovault_client",
			Name:      "decryptions_total",
			Help:      "File decryption attempts, by outcome (ok, denied, error).",
		},
		[]string{"outcome"},
	)
)
