package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceValue(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		in       any
		expected any
	}{
		{"nil", nil, nil},
		{"string", "hello", "hello"},
		{"bool", true, true},
		{"int", 42, int64(42)},
		{"int32", int32(7), int64(7)},
		{"uint16", uint16(9), int64(9)},
		{"float32", float32(1.5), float64(1.5)},
		{"float64", 2.5, 2.5},
		{"time passthrough", now, now},
		{"non-scalar rendered to string", []int{1, 2}, "[1 2]"},
		{"struct rendered to string", struct{ A int }{3}, "{3}"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, CoerceValue(test.in))
		})
	}
}

func TestNewNode_MergeSemantics(t *testing.T) {
	node, downgraded := NewNode(
		[]string{"Species", "BioEntity"},
		[]Attribute{NewAttribute("Name", "setosa"), NewAttribute("Kingdom", "Plantae")},
		"Name",
	)

	require.False(t, downgraded)
	assert.True(t, node.Merge)
	assert.Equal(t, "Species", node.PrimaryLabel)
	assert.Equal(t, "Name", node.PrimaryKey)
	assert.Equal(t, "setosa", node.PrimaryValue())
	// The merge key stays in the property map
	assert.Equal(t, "setosa", node.Properties["Name"])
}

func TestNewNode_NoPrimaryKey(t *testing.T) {
	node, downgraded := NewNode([]string{"Flower"}, []Attribute{NewAttribute("Petals", 5)}, "")
	require.False(t, downgraded)
	assert.False(t, node.Merge)
	assert.Nil(t, node.PrimaryValue())
}

func TestNewNode_NilPrimaryValueDowngrades(t *testing.T) {
	node, downgraded := NewNode(
		[]string{"Species"},
		[]Attribute{NewAttribute("Name", nil)},
		"Name",
	)

	assert.True(t, downgraded)
	assert.False(t, node.Merge)
	assert.Empty(t, node.PrimaryLabel)
}

func TestNode_MergeID(t *testing.T) {
	a, _ := NewNode([]string{"Species"}, []Attribute{NewAttribute("Name", "setosa")}, "Name")
	b, _ := NewNode([]string{"Species"}, []Attribute{
		NewAttribute("Name", "setosa"),
		NewAttribute("Extra", 1),
	}, "Name")
	c, _ := NewNode([]string{"Species"}, []Attribute{NewAttribute("Name", "versicolor")}, "Name")

	assert.Equal(t, a.MergeID(), b.MergeID(), "same merge key collapses")
	assert.NotEqual(t, a.MergeID(), c.MergeID())

	// Non-merge nodes are distinct per tag
	x, _ := NewNode([]string{"Flower"}, nil, "")
	y, _ := NewNode([]string{"Flower"}, nil, "")
	x.SetTag("t1")
	y.SetTag("t2")
	assert.NotEqual(t, x.MergeID(), y.MergeID())
}

func TestNodeMatch_PatternKey(t *testing.T) {
	a := &NodeMatch{Labels: []string{"B", "A"}, Conditions: map[string]any{"x": 1, "y": 2}}
	b := &NodeMatch{Labels: []string{"A", "B"}, Conditions: map[string]any{"y": 2, "x": 1}}
	c := &NodeMatch{Labels: []string{"A"}, Conditions: map[string]any{"x": 1}}

	assert.Equal(t, a.PatternKey(), b.PatternKey(), "pattern key is order independent")
	assert.NotEqual(t, a.PatternKey(), c.PatternKey())
}

func TestNewRelationship_MergeSemantics(t *testing.T) {
	start, _ := NewNode([]string{"Person"}, []Attribute{NewAttribute("ID", 1)}, "ID")
	end := &NodeMatch{Labels: []string{"Species"}, Conditions: map[string]any{"Name": "setosa"}}

	rel, downgraded := NewRelationship(start, end, "likes",
		[]Attribute{NewAttribute("Since", 2020)}, "Since")
	require.False(t, downgraded)
	assert.True(t, rel.Merge)
	assert.Equal(t, int64(2020), rel.PrimaryValue())

	// Same endpoints, type and primary value share an identity
	rel2, _ := NewRelationship(start, end, "likes",
		[]Attribute{NewAttribute("Since", 2020)}, "Since")
	assert.Equal(t, rel.MergeID(), rel2.MergeID())

	// Non-merge relationships never share an identity
	par1, _ := NewRelationship(start, end, "likes", nil, "")
	par2, _ := NewRelationship(start, end, "likes", nil, "")
	assert.NotEqual(t, par1.MergeID(), par2.MergeID())
}

func TestNewRelationship_NilPrimaryValueDowngrades(t *testing.T) {
	start, _ := NewNode([]string{"A"}, []Attribute{NewAttribute("k", 1)}, "k")
	end, _ := NewNode([]string{"B"}, []Attribute{NewAttribute("k", 2)}, "k")

	rel, downgraded := NewRelationship(start, end, "rel",
		[]Attribute{NewAttribute("id", nil)}, "id")
	assert.True(t, downgraded)
	assert.False(t, rel.Merge)
}
