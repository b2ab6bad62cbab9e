package neo4jdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

func TestRowsFromRecords(t *testing.T) {
	records := []*db.Record{
		{Keys: []string{"key", "eid"}, Values: []any{"setosa", "4:abc:1"}},
		{Keys: []string{"key", "eid"}, Values: []any{"versicolor", "4:abc:2"}},
	}

	rows := rowsFromRecords(records)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"key": "setosa", "eid": "4:abc:1"}, rows[0])
	assert.Equal(t, map[string]any{"key": "versicolor", "eid": "4:abc:2"}, rows[1])
}

func TestRowsFromRecords_Empty(t *testing.T) {
	assert.Empty(t, rowsFromRecords(nil))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "bolt://localhost:7687", cfg.URI)
	assert.NotZero(t, cfg.TransactionTimeout)
}
