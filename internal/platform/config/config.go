package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "github.com/youssefloay/comebac-sub002/pkg/platform/strings"
)

// Server captures process-level configuration for the admission service.
type Server struct {
	Addr               string
	DatabaseURL        string
	StaffJWTSigningKey string

	// KioskAPIKeyHashes holds bcrypt hashes of the gate kiosks' pre-shared
	// API keys. Empty disables the kiosk path; token routes then require a
	// staff JWT like everything else.
	KioskAPIKeyHashes []string

	// MatchSeedFile optionally points at a JSON fixture list for the
	// in-process match catalog. The production platform feeds the catalog
	// from its own match service instead.
	MatchSeedFile string

	// DefaultCapacityLimit applies when no explicit limit is configured for a
	// match; the capacity service also falls back to it when the limit store
	// is unreachable.
	DefaultCapacityLimit int

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig controls the optional availability cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the optional audit event sink.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ADMISSION_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("STAFF_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	defaultLimit := 100
	if raw := os.Getenv("DEFAULT_CAPACITY_LIMIT"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			defaultLimit = v
		}
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "admission.audit"
	}

	return Server{
		Addr:                 addr,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		StaffJWTSigningKey:   jwtSigningKey,
		KioskAPIKeyHashes:    pstrings.DedupeAndTrim(strings.Split(os.Getenv("KIOSK_API_KEY_HASHES"), ",")),
		MatchSeedFile:        os.Getenv("MATCH_SEED_FILE"),
		DefaultCapacityLimit: defaultLimit,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers:    pstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")),
			AuditTopic: auditTopic,
		},
	}
}
