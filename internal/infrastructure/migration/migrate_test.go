package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/erp/stockledger/internal/infrastructure/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../../migrations"

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "ledger.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
	return n == 1
}

func TestMigrator_UpAndDownOnSQLite(t *testing.T) {
	db := openSQLite(t)
	path, err := filepath.Abs(schemaPath)
	require.NoError(t, err)

	m, err := New(db, config.DriverSQLite, path, nil)
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	for _, table := range []string{"warehouses", "products", "stock_movements", "incoming_stock", "production_orders"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	status, err := m.Status()
	require.NoError(t, err)
	require.NotEmpty(t, status.Available)
	assert.NotZero(t, status.Version)
	assert.False(t, status.Dirty)

	// A second Up is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "stock_movements"))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrator_SchemaEnforcesLedgerChecks(t *testing.T) {
	db := openSQLite(t)
	path, err := filepath.Abs(schemaPath)
	require.NoError(t, err)
	m, err := New(db, config.DriverSQLite, path, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	_, err = db.Exec(`INSERT INTO warehouses (id, code, name, created_at, updated_at)
		VALUES ('w1', 'GA', 'Georgia', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO warehouses (id, code, name, created_at, updated_at)
		VALUES ('w2', 'GA', 'Duplicate', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "warehouse codes are unique")

	_, err = db.Exec(`INSERT INTO products (id, sku, name, created_at, updated_at)
		VALUES ('p1', 'SKU-1', 'Widget', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO stock_movements (id, product_id, warehouse_id, type, quantity, date, created_at, updated_at)
		VALUES ('m1', 'p1', 'w1', 'MOVE', 1, '2026-01-01', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "movement type is IN or OUT")

	_, err = db.Exec(`INSERT INTO production_orders (id, product_id, order_number, quantity, remaining_quantity, created_at, updated_at)
		VALUES ('o1', 'p1', 'PO-1', 10, 11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "remaining cannot exceed quantity")

	_, err = db.Exec(`INSERT INTO incoming_stock (id, product_id, warehouse_id, quantity, expected_arrival_date, created_at, updated_at)
		VALUES ('s1', 'missing', 'w1', 5, '2026-02-01', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "shipments reference an existing product")

	require.NoError(t, m.Close())
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	_, err := New(openSQLite(t), "mysql", schemaPath, nil)
	assert.Error(t, err)
}
