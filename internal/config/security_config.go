package config

import "time"

type SecurityConfig interface {
	GetJWTSecret() string
	GetSessionTTL() time.Duration
}

type Security struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

var _ SecurityConfig = Security{}

// GetJWTSecret returns the HMAC secret for session tokens. Empty means one is generated at startup.
func (s Security) GetJWTSecret() string {
	return s.JWTSecret
}

func (s Security) GetSessionTTL() time.Duration {
	return s.SessionTTL
}
