package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	query := `SELECT id FROM orders WHERE tenant_id = ? AND created_at >= ? AND created_at <= ?`

	pg := &Store{driver: DriverPostgres}
	require.Equal(t, `SELECT id FROM orders WHERE tenant_id = $1 AND created_at >= $2 AND created_at <= $3`, pg.rebind(query))
	require.Equal(t, "VALUES ($1, $2)", pg.rebind("VALUES (?, ?)"))
	require.Equal(t, "SELECT 1", pg.rebind("SELECT 1"))

	lite := &Store{driver: DriverSQLite}
	require.Equal(t, query, lite.rebind(query))
}
