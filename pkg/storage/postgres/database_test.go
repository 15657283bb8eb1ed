package postgres_test

import (
	"testing"

	"stockcache/pkg/storage/postgres"

	"github.com/stretchr/testify/require"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	cfg := startPostgres(t)
	cfg.DBName = "test_price_db"

	require.NoError(t, postgres.CreateDatabase(cfg, "dev"))
	// second call finds the database and does nothing
	require.NoError(t, postgres.CreateDatabase(cfg, "dev"))
}
