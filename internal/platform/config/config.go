package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from environment
// variables so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	// RoleGrants seeds the role provider: "userID:role" pairs, comma
	// separated, e.g. "2f1d...:cb_admin,7aa1...:lead_auditor".
	RoleGrants []RoleGrant
	// LockTTL bounds how long a per-audit transition lock may be held before
	// it expires on its own.
	LockTTL time.Duration
}

// RoleGrant is one parsed entry of CEDRUS_ROLE_GRANTS.
type RoleGrant struct {
	UserID string
	Role   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CEDRUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("CEDRUS_KAFKA_TOPIC")
	if topic == "" {
		topic = "cedrus.audit.status"
	}

	var brokers []string
	if raw := os.Getenv("CEDRUS_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	jwtSigningKey := os.Getenv("CEDRUS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var grants []RoleGrant
	if raw := os.Getenv("CEDRUS_ROLE_GRANTS"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			userID, role, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || userID == "" || role == "" {
				continue
			}
			grants = append(grants, RoleGrant{UserID: userID, Role: role})
		}
	}

	lockTTL := 10 * time.Second
	if raw := os.Getenv("CEDRUS_LOCK_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			lockTTL = d
		}
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("CEDRUS_DATABASE_URL"),
		RedisURL:      os.Getenv("CEDRUS_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		RoleGrants:    grants,
		LockTTL:       lockTTL,
	}
}
