package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver represents a supported SQL driver.
type Driver string

const (
	PostgresDriver Driver = "postgres"
	MySQLDriver    Driver = "mysql"
	SQLiteDriver   Driver = "sqlite3"
)

func ParseDriver(input string) (Driver, error) {
	switch strings.ToLower(input) {
	case "postgres":
		return PostgresDriver, nil
	case "mysql":
		return MySQLDriver, nil
	case "sqlite", "sqlite3":
		return SQLiteDriver, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", input)
	}
}

// Config describes one metadata database connection. For sqlite only Name
// is used (file path or ":memory:").
type Config struct {
	Driver   Driver
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Options  map[string]string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a sqlite configuration pointed at path.
func DefaultConfig(path string) Config {
	return Config{
		Driver:          SQLiteDriver,
		Name:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 10 * time.Minute,
	}
}

// DSN builds the driver-specific connection string.
func (c Config) DSN() string {
	switch c.Driver {
	case PostgresDriver:
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s",
			c.Host, c.Port, c.User, c.Password, c.Name,
		)
		for key, value := range c.Options {
			dsn += fmt.Sprintf(" %s=%s", key, value)
		}
		return dsn
	case MySQLDriver:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Password, c.Host, c.Port, c.Name)
		if len(c.Options) > 0 {
			var parts []string
			for key, value := range c.Options {
				parts = append(parts, fmt.Sprintf("%s=%s", key, value))
			}
			dsn += "?" + strings.Join(parts, "&")
		}
		return dsn
	case SQLiteDriver:
		return c.Name
	default:
		return ""
	}
}

// Open connects to the configured database and verifies the connection.
func Open(cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN()
	if dsn == "" {
		return nil, fmt.Errorf("invalid or unsupported driver: %s", cfg.Driver)
	}

	db, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB using driver %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}
