package commonmodules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/registry"
)

func TestRegister(t *testing.T) {
	r := registry.New(nil)
	Register(r)

	snapshot := r.Snapshot()
	for _, name := range []string{"INT", "FLOAT", "STR", "BOOL", "UPPER", "LOWER", "DATE", "DATETIME"} {
		entry, ok := snapshot.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, registry.KindAttributePost, entry.Kind, name)
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(graph.Attribute, []any) (graph.Attribute, error)
		in       any
		args     []any
		expected any
		wantErr  bool
	}{
		{"int from string", toInt, "42", nil, int64(42), false},
		{"int from float", toInt, 3.9, nil, int64(3), false},
		{"int from bool", toInt, true, nil, int64(1), false},
		{"int passthrough", toInt, int64(7), nil, int64(7), false},
		{"int invalid", toInt, "abc", nil, nil, true},
		{"float from string", toFloat, "2.5", nil, 2.5, false},
		{"float from int", toFloat, int64(2), nil, 2.0, false},
		{"str from int", toString, int64(5), nil, "5", false},
		{"str passthrough", toString, "x", nil, "x", false},
		{"bool from string", toBool, "true", nil, true, false},
		{"bool from int", toBool, int64(0), nil, false, false},
		{"upper", toUpper, "setosa", nil, "SETOSA", false},
		{"lower", toLower, "SETOSA", nil, "setosa", false},
		{"upper non-string passthrough", toUpper, int64(1), nil, int64(1), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := test.fn(graph.NewAttribute("k", test.in), test.args)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, out.Value)
			assert.Equal(t, "k", out.Key)
		})
	}
}

func TestDateParsing(t *testing.T) {
	out, err := toDate(graph.NewAttribute("d", "2024-02-29"), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), out.Value)

	out, err = toDate(graph.NewAttribute("d", "29.02.2024"), []any{"02.01.2006"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), out.Value)

	_, err = toDate(graph.NewAttribute("d", "not a date"), nil)
	assert.Error(t, err)
}

func TestDateTimeParsing(t *testing.T) {
	out, err := toDateTime(graph.NewAttribute("ts", "2024-02-29T12:30:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC), out.Value)

	now := time.Now()
	out, err = toDateTime(graph.NewAttribute("ts", now), nil)
	require.NoError(t, err)
	assert.Equal(t, now, out.Value)
}
