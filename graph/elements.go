// Package graph defines the in-memory property-graph value types produced by
// factories and consumed by the writer: attributes, nodes, relationships,
// node-match patterns and subgraphs, together with the merge-identity
// semantics used to deduplicate merge operations within a batch.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// nodeSeq provides provisional tags so every non-merge node is distinct from
// creation. The engine overwrites them with deterministic tags before a node
// enters a batch.
var nodeSeq atomic.Int64

// CoerceValue normalises a raw value into a graph-storable scalar.
// Integers, floats, booleans, strings, temporal values and nil pass through
// (integer widths collapse to int64, float32 to float64); anything else is
// rendered to its string form.
func CoerceValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool, string, int64, float64, time.Time:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Attribute is an immutable key/value pair produced by an attribute factory.
type Attribute struct {
	Key   string
	Value any
}

// NewAttribute creates an attribute with a coerced value
func NewAttribute(key string, value any) Attribute {
	return Attribute{Key: key, Value: CoerceValue(value)}
}

// Endpoint is one end of a relationship: either a concrete node produced in
// the same resource plan, or a pattern matching pre-existing graph nodes.
type Endpoint interface {
	endpointKey() string
}

// Node is a property-graph node. A node with Merge set is an upsert target
// keyed by (PrimaryLabel, PrimaryKey, primary key value); otherwise it is
// created unconditionally.
type Node struct {
	Labels     []string
	Properties map[string]any

	PrimaryLabel string
	PrimaryKey   string
	Merge        bool

	// tag is an ephemeral intra-batch handle used by the writer to resolve
	// relationship endpoints pointing at non-merge nodes.
	tag string
}

// NewNode builds a node from labels and constructed attributes. If primaryKey
// names one of the attributes and its value is non-nil the node becomes a
// merge target with the first label as primary label. A nil primary value
// downgrades the node to plain creation; the second return value reports
// that downgrade so the caller can log it.
func NewNode(labels []string, attributes []Attribute, primaryKey string) (*Node, bool) {
	properties := make(map[string]any, len(attributes))
	for _, attr := range attributes {
		properties[attr.Key] = attr.Value
	}

	node := &Node{
		Labels:     labels,
		Properties: properties,
		tag:        fmt.Sprintf("~%d", nodeSeq.Add(1)),
	}

	if primaryKey == "" || len(labels) == 0 {
		return node, false
	}

	if value, ok := properties[primaryKey]; !ok || value == nil {
		return node, true
	}

	node.Merge = true
	node.PrimaryLabel = labels[0]
	node.PrimaryKey = primaryKey
	return node, false
}

// PrimaryValue returns the value of the merge key, or nil for non-merge nodes
func (n *Node) PrimaryValue() any {
	if n.PrimaryKey == "" {
		return nil
	}
	return n.Properties[n.PrimaryKey]
}

// MergeID returns the merge-identity of the node. Merge nodes are identified
// by (primary label, primary key name, primary key value); non-merge nodes by
// their ephemeral tag, making every instance distinct.
func (n *Node) MergeID() string {
	if n.Merge {
		return fmt.Sprintf("m\x1f%s\x1f%s\x1f%v", n.PrimaryLabel, n.PrimaryKey, n.Properties[n.PrimaryKey])
	}
	return "c\x1f" + n.tag
}

// Tag returns the ephemeral intra-batch handle of a non-merge node
func (n *Node) Tag() string {
	return n.tag
}

// SetTag assigns the ephemeral intra-batch handle. Called once by the engine
// when the node enters a batch.
func (n *Node) SetTag(tag string) {
	n.tag = tag
}

func (n *Node) endpointKey() string {
	return "n\x1f" + n.MergeID()
}

// NodeMatch is a pattern over pre-existing graph nodes: all nodes carrying
// every label and satisfying every property condition.
type NodeMatch struct {
	Labels     []string
	Conditions map[string]any
}

// PatternKey returns a canonical string for the pattern, used to deduplicate
// and cache match resolutions. Labels and condition keys are sorted.
func (m *NodeMatch) PatternKey() string {
	labels := append([]string(nil), m.Labels...)
	sort.Strings(labels)

	keys := make([]string, 0, len(m.Conditions))
	for key := range m.Conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, label := range labels {
		sb.WriteString(label)
		sb.WriteByte('\x1f')
	}
	sb.WriteByte('\x1e')
	for _, key := range keys {
		fmt.Fprintf(&sb, "%s=%v\x1f", key, m.Conditions[key])
	}
	return sb.String()
}

func (m *NodeMatch) endpointKey() string {
	return "p\x1f" + m.PatternKey()
}

// Relationship is a directed, typed edge between two endpoints. A
// relationship with Merge set deduplicates on (endpoints, type, primary key,
// primary value); otherwise parallel edges are created.
type Relationship struct {
	Start Endpoint
	End   Endpoint
	Type  string

	Properties map[string]any
	PrimaryKey string
	Merge      bool
}

// NewRelationship builds a relationship from endpoints, a type and
// constructed attributes, applying the same primary-key rules as NewNode.
func NewRelationship(start, end Endpoint, relType string, attributes []Attribute, primaryKey string) (*Relationship, bool) {
	properties := make(map[string]any, len(attributes))
	for _, attr := range attributes {
		properties[attr.Key] = attr.Value
	}

	rel := &Relationship{
		Start:      start,
		End:        end,
		Type:       relType,
		Properties: properties,
	}

	if primaryKey == "" {
		return rel, false
	}
	if value, ok := properties[primaryKey]; !ok || value == nil {
		return rel, true
	}

	rel.Merge = true
	rel.PrimaryKey = primaryKey
	return rel, false
}

// PrimaryValue returns the value of the merge key, or nil for non-merge
// relationships
func (r *Relationship) PrimaryValue() any {
	if r.PrimaryKey == "" {
		return nil
	}
	return r.Properties[r.PrimaryKey]
}

// MergeID returns the merge-identity of the relationship
func (r *Relationship) MergeID() string {
	if !r.Merge {
		return fmt.Sprintf("c\x1f%p", r)
	}
	return fmt.Sprintf("m\x1f%s\x1f%s\x1f%s\x1f%s\x1f%v",
		r.Start.endpointKey(), r.End.endpointKey(), r.Type, r.PrimaryKey, r.Properties[r.PrimaryKey])
}
