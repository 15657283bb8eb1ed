package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=stockcache dbname=stockcache sslmode=disable"),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

// go test -v --run TestSymbolLookupUsesIndexColumn
func TestSymbolLookupUsesIndexColumn(t *testing.T) {
	db := dryRunDB(t)

	var rows []PriceRecordRow
	stmt := bySymbol(db.Model(&PriceRecordRow{}), "ibm").Order("date DESC").Find(&rows).Statement
	sql := stmt.SQL.String()
	assert.NotContains(t, sql, "UPPER")
	assert.Contains(t, sql, "symbol = $1")
	require.NotEmpty(t, stmt.Vars)
	assert.Equal(t, "IBM", stmt.Vars[0])

	var count int64
	day := time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC)
	stmt = bySymbolAndDate(db.Model(&PriceRecordRow{}), " msft ", day).Count(&count).Statement
	sql = stmt.SQL.String()
	assert.NotContains(t, sql, "UPPER")
	assert.Contains(t, sql, "symbol = $1")
	assert.Contains(t, sql, "date = $2")
	require.Len(t, stmt.Vars, 2)
	assert.Equal(t, "MSFT", stmt.Vars[0])
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), stmt.Vars[1])
}
