package storage

import (
	"testing"

	"hservice/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{
		"sqlite3": {DSN: ":memory:"},
	}}
	db, driver, err := Open("sqlite3", cfg)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DriverSQLite, driver)

	require.NoError(t, Migrate(db, driver))
	// idempotent
	require.NoError(t, Migrate(db, driver))

	_, err = db.Exec(`INSERT INTO productos (name, description, price, in_stock, discount_percent) VALUES (?, ?, ?, ?, ?)`,
		"Mouse", "", "8000", true, "5")
	require.NoError(t, err)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM productos`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenUnknownDatabase(t *testing.T) {
	_, _, err := Open("oracle", &config.Config{})
	assert.Error(t, err)

	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{"oracle": {DSN: "x"}}}
	_, _, err = Open("oracle", cfg)
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM productos WHERE name = ? AND id > ?"
	assert.Equal(t, q, Rebind(DriverMySQL, q))
	assert.Equal(t, "SELECT * FROM productos WHERE name = $1 AND id > $2", Rebind(DriverPostgres, q))
}

func TestDSNForBuildsNetworkDSNs(t *testing.T) {
	c := config.DatabaseConfig{Host: "db", Port: 3306, Username: "u", Password: "p", DBName: "shop"}
	assert.Equal(t, "u:p@tcp(db:3306)/shop?parseTime=true&charset=utf8mb4", dsnFor(DriverMySQL, c))

	c.Port = 5432
	c.Params = "sslmode=disable"
	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", dsnFor(DriverPostgres, c))
}
