package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hservice/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// NormalizeDriver maps config spellings onto the three supported drivers.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mysql":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", driver)
	}
}

// Open connects to the database configured under name and returns the handle
// together with its normalized driver.
func Open(name string, cfg *config.Config) (*sql.DB, string, error) {
	dbCfg, ok := cfg.Databases[strings.ToLower(name)]
	if !ok {
		return nil, "", fmt.Errorf("database config for %s not found", name)
	}
	driverName := dbCfg.Driver
	if driverName == "" {
		driverName = name
	}
	driver, err := NormalizeDriver(driverName)
	if err != nil {
		return nil, "", err
	}
	db, err := OpenDSN(driver, dsnFor(driver, dbCfg))
	if err != nil {
		return nil, "", err
	}
	return db, driver, nil
}

// OpenDSN opens and pings a database for an already normalized driver.
func OpenDSN(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn must be provided", driver)
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// a single connection keeps ":memory:" databases alive across queries
		db.SetMaxOpenConns(1)
	case DriverMySQL:
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func dsnFor(driver string, c config.DatabaseConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	switch driver {
	case DriverMySQL:
		params := c.Params
		if params == "" {
			params = "parseTime=true&charset=utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			c.Username,
			c.Password,
			c.Host,
			c.Port,
			c.DBName,
			params,
		)
	case DriverPostgres:
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.Username, c.Password, c.Host, c.Port, c.DBName)
		if c.Params != "" {
			dsn += "?" + c.Params
		}
		return dsn
	}
	return ""
}

// Rebind rewrites "?" placeholders into "$n" for postgres.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Migrate ensures the product catalog table is present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS productos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				price NUMERIC NOT NULL,
				in_stock BOOLEAN NOT NULL DEFAULT 1,
				discount_percent NUMERIC NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_productos_name ON productos(name)`,
		}
	case DriverMySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS productos (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				price DECIMAL(14,2) NOT NULL,
				in_stock TINYINT(1) NOT NULL DEFAULT 1,
				discount_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
				PRIMARY KEY (id),
				INDEX idx_productos_name (name)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	case DriverPostgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS productos (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				price NUMERIC(14,2) NOT NULL,
				in_stock BOOLEAN NOT NULL DEFAULT TRUE,
				discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_productos_name ON productos(name)`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
