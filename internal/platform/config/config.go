package config

import (
	"os"
	"strconv"
	"time"
)

// Backend selects the registry/ledger storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
)

// AttestationMode selects the identity attestation collaborator at startup.
// There is deliberately no per-request switching.
type AttestationMode string

const (
	AttestationMock     AttestationMode = "mock"
	AttestationProtocol AttestationMode = "protocol"
)

// DefaultMaxQuantity bounds a single distribution record.
const DefaultMaxQuantity = 1_000_000

// FamilyCacheTTL enforces retention for cached family records.
var FamilyCacheTTL = 5 * time.Minute

// Server captures process-level configuration. Cooldown windows are not
// here on purpose: they are product constants owned by pkg/domain.
type Server struct {
	Addr            string
	StorageBackend  Backend
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    string
	AuditTopic      string
	AttestationMode AttestationMode
	JWTSigningKey   string
	// OperatorKeyHash is the bcrypt hash of the operator API key guarding
	// family status changes. Empty disables the operator surface.
	OperatorKeyHash string
	MaxQuantity     int
	StoreTimeout    time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("RELIEFLINK_ADDR", ":8080"),
		StorageBackend:  Backend(envOr("RELIEFLINK_STORAGE", string(BackendMemory))),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		AuditTopic:      envOr("AUDIT_TOPIC", "relieflink.audit"),
		AttestationMode: AttestationMode(envOr("ATTESTATION_MODE", string(AttestationMock))),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		OperatorKeyHash: os.Getenv("OPERATOR_KEY_HASH"),
		MaxQuantity:     DefaultMaxQuantity,
		StoreTimeout:    5 * time.Second,
	}

	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if raw := os.Getenv("MAX_QUANTITY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.MaxQuantity = n
		}
	}

	if raw := os.Getenv("STORE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.StoreTimeout = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
