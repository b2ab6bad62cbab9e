package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/relgraph/resource"
)

func TestRowResource_Access(t *testing.T) {
	res := NewRowResource("Flower", Row{"species": "setosa", "petals": 5})

	assert.Equal(t, "Flower", res.Type())

	value, err := res.Get("species")
	require.NoError(t, err)
	assert.Equal(t, "setosa", value)

	_, err = res.Get("missing")
	assert.Error(t, err)

	// Writes overlay the row without mutating it
	require.NoError(t, res.Set("species", "versicolor"))
	value, err = res.Get("species")
	require.NoError(t, err)
	assert.Equal(t, "versicolor", value)

	require.NoError(t, res.Set("new_col", 1))
	assert.ElementsMatch(t, []string{"species", "petals", "new_col"}, res.Keys())
}

func TestRowResource_Supplies(t *testing.T) {
	res := NewRowResource("Flower", Row{})

	_, ok := res.Supplies().Supply("node")
	assert.False(t, ok)

	res.Supplies().SetSupply("node", 42)
	value, ok := res.Supplies().Supply("node")
	require.True(t, ok)
	assert.Equal(t, 42, value)

	res.Supplies().Clear()
	_, ok = res.Supplies().Supply("node")
	assert.False(t, ok)
}

func TestTableIterator_TraverseAndReset(t *testing.T) {
	it := NewTableIterator("Flower", []Row{
		{"species": "setosa"},
		{"species": "versicolor"},
	})

	assert.Equal(t, 2, it.Len())

	var types []string
	for {
		res, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		value, err := res.Get("species")
		require.NoError(t, err)
		types = append(types, value.(string))
	}
	assert.Equal(t, []string{"setosa", "versicolor"}, types)

	// Exhausted iterator keeps returning done
	_, ok, err := it.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, it.Reset())
	res, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Flower", res.Type())
}

func TestCompositeIterator(t *testing.T) {
	first := NewTableIterator("A", []Row{{"v": 1}})
	second := NewTableIterator("B", []Row{{"v": 2}, {"v": 3}})
	it := resource.NewCompositeIterator(first, second)

	assert.Equal(t, 3, it.Len())

	var seen []string
	for {
		res, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, res.Type())
	}
	assert.Equal(t, []string{"A", "B", "B"}, seen)

	require.NoError(t, it.Reset())
	res, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", res.Type())
}
