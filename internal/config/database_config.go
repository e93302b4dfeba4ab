package config

import "time"

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig interface {
	GetDatabaseDriver() string
	GetDatabaseURL() string
	GetMaxOpenConns() int
	GetMaxIdleConns() int
	GetConnMaxLifetime() time.Duration
}

type Database struct {
	Driver          string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL             string        `env:"DATABASE_URL" envDefault:"file:store-insights.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

var _ DatabaseConfig = Database{}

// GetDatabaseDriver returns the database/sql driver name, accepting "postgres" as an alias for pgx.
func (d Database) GetDatabaseDriver() string {
	if d.Driver == "postgres" {
		return DriverPostgres
	}
	return d.Driver
}

func (d Database) GetDatabaseURL() string {
	return d.URL
}

func (d Database) GetMaxOpenConns() int {
	return d.MaxOpenConns
}

func (d Database) GetMaxIdleConns() int {
	return d.MaxIdleConns
}

func (d Database) GetConnMaxLifetime() time.Duration {
	return d.ConnMaxLifetime
}
