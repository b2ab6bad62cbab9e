package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeNode(t *testing.T, label, key string, value any, extra ...Attribute) *Node {
	t.Helper()
	attrs := append([]Attribute{NewAttribute(key, value)}, extra...)
	node, downgraded := NewNode([]string{label}, attrs, key)
	require.False(t, downgraded)
	return node
}

func TestSubgraph_AddNodeUnifiesMergeIdentical(t *testing.T) {
	s := NewSubgraph()

	first := s.AddNode(mergeNode(t, "Species", "Name", "setosa", NewAttribute("Color", "blue")))
	second := s.AddNode(mergeNode(t, "Species", "Name", "setosa", NewAttribute("Color", "purple"), NewAttribute("Petals", 4)))

	assert.Same(t, first, second, "merge-identical nodes collapse to one")
	require.Len(t, s.Nodes(), 1)
	// Last writer wins on overlap, new keys are added
	assert.Equal(t, "purple", first.Properties["Color"])
	assert.Equal(t, int64(4), first.Properties["Petals"])
}

func TestSubgraph_NonMergeNodesAccumulate(t *testing.T) {
	s := NewSubgraph()
	for i := 0; i < 3; i++ {
		node, _ := NewNode([]string{"Flower"}, nil, "")
		node.SetTag(string(rune('a' + i)))
		s.AddNode(node)
	}
	assert.Len(t, s.Nodes(), 3)
}

func TestSubgraph_AddRelationshipDeduplicatesMerged(t *testing.T) {
	s := NewSubgraph()
	start := mergeNode(t, "Person", "ID", 1)
	end := mergeNode(t, "Species", "Name", "setosa")

	r1, _ := NewRelationship(start, end, "likes", []Attribute{NewAttribute("Weight", 1)}, "Weight")
	r2, _ := NewRelationship(start, end, "likes", []Attribute{NewAttribute("Weight", 1)}, "Weight")
	s.AddRelationship(r1)
	s.AddRelationship(r2)
	assert.Len(t, s.Relationships(), 1)

	// Parallel edges survive without a primary key
	p1, _ := NewRelationship(start, end, "likes", nil, "")
	p2, _ := NewRelationship(start, end, "likes", nil, "")
	s.AddRelationship(p1)
	s.AddRelationship(p2)
	assert.Len(t, s.Relationships(), 3)
}

func TestSubgraph_Union(t *testing.T) {
	a := NewSubgraph()
	a.AddNode(mergeNode(t, "Species", "Name", "setosa", NewAttribute("Color", "blue")))

	b := NewSubgraph()
	b.AddNode(mergeNode(t, "Species", "Name", "setosa", NewAttribute("Color", "red")))
	b.AddNode(mergeNode(t, "Species", "Name", "versicolor"))

	a.Union(b)
	require.Len(t, a.Nodes(), 2)
	assert.Equal(t, "red", a.Nodes()[0].Properties["Color"], "union folds properties last-writer-wins")

	assert.False(t, a.Empty())
	assert.True(t, NewSubgraph().Empty())
	assert.Same(t, a, a.Union(nil))
}
