package writer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/c360/relgraph/graph"
)

// TagProperty is the internal property carrying the ephemeral handle of
// non-merge nodes so relationship endpoints can be resolved in the
// relationship phase. It is removed by Cleanup after a successful run.
const TagProperty = "_relgraph_tag"

var simpleIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// escapeIdent returns a Cypher identifier, backtick-escaped if required.
// Backticks themselves are escaped by doubling.
func escapeIdent(identifier string) string {
	if simpleIdent.MatchString(identifier) {
		return identifier
	}
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// labelString renders a ":Label1:Label2" fragment
func labelString(labels []string) string {
	var sb strings.Builder
	for _, label := range labels {
		sb.WriteByte(':')
		sb.WriteString(escapeIdent(label))
	}
	return sb.String()
}

// sortedKeys returns the map keys in sorted order for deterministic queries
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// mergeNodesQuery builds a bulk MERGE for one group of merge nodes sharing
// primary label, primary key and label set. Each row carries the primary
// key value and the full property map.
func mergeNodesQuery(primaryLabel, primaryKey string, extraLabels []string) string {
	var sb strings.Builder
	sb.WriteString("UNWIND $rows AS r\n")
	fmt.Fprintf(&sb, "MERGE (_:%s {%s: r.pk})\n", escapeIdent(primaryLabel), escapeIdent(primaryKey))
	sb.WriteString("SET _ += r.props")
	if len(extraLabels) > 0 {
		sb.WriteString("\nSET _")
		sb.WriteString(labelString(extraLabels))
	}
	return sb.String()
}

// createNodesQuery builds a bulk CREATE for one group of non-merge nodes
// sharing a label set
func createNodesQuery(labels []string) string {
	var sb strings.Builder
	sb.WriteString("UNWIND $rows AS r\n")
	fmt.Fprintf(&sb, "CREATE (_%s)\n", labelString(labels))
	sb.WriteString("SET _ += r.props")
	return sb.String()
}

// matchByMergeKeyQuery resolves merge-node endpoints of one (label, key)
// group to element ids
func matchByMergeKeyQuery(primaryLabel, primaryKey string) string {
	return fmt.Sprintf("UNWIND $keys AS k\nMATCH (n:%s {%s: k})\nRETURN k AS key, elementId(n) AS eid",
		escapeIdent(primaryLabel), escapeIdent(primaryKey))
}

// matchByTagQuery resolves non-merge node endpoints by their internal tag
func matchByTagQuery() string {
	return fmt.Sprintf("UNWIND $tags AS t\nMATCH (n {%s: t})\nRETURN t AS tag, elementId(n) AS eid", TagProperty)
}

// matchPatternQuery resolves a node-match pattern to element ids. Condition
// values are passed as parameters keyed c0, c1, ... in sorted key order.
func matchPatternQuery(match *graph.NodeMatch) (string, map[string]any) {
	params := make(map[string]any, len(match.Conditions))
	var conds []string
	for i, key := range sortedKeys(match.Conditions) {
		param := fmt.Sprintf("c%d", i)
		conds = append(conds, fmt.Sprintf("%s: $%s", escapeIdent(key), param))
		params[param] = match.Conditions[key]
	}

	var sb strings.Builder
	sb.WriteString("MATCH (n")
	sb.WriteString(labelString(match.Labels))
	if len(conds) > 0 {
		sb.WriteString(" {")
		sb.WriteString(strings.Join(conds, ", "))
		sb.WriteString("}")
	}
	sb.WriteString(")\nRETURN elementId(n) AS eid")
	return sb.String(), params
}

// mergeRelationshipsQuery builds a bulk MERGE for one group of merge
// relationships sharing a type and primary key. Each row carries resolved
// endpoint element ids, the primary key value and the property map.
func mergeRelationshipsQuery(relType, primaryKey string) string {
	var sb strings.Builder
	sb.WriteString("UNWIND $rows AS r\n")
	sb.WriteString("MATCH (a) WHERE elementId(a) = r.start\n")
	sb.WriteString("MATCH (b) WHERE elementId(b) = r.end\n")
	fmt.Fprintf(&sb, "MERGE (a)-[_:%s {%s: r.pk}]->(b)\n", escapeIdent(relType), escapeIdent(primaryKey))
	sb.WriteString("SET _ += r.props")
	return sb.String()
}

// createRelationshipsQuery builds a bulk CREATE for one group of non-merge
// relationships sharing a type
func createRelationshipsQuery(relType string) string {
	var sb strings.Builder
	sb.WriteString("UNWIND $rows AS r\n")
	sb.WriteString("MATCH (a) WHERE elementId(a) = r.start\n")
	sb.WriteString("MATCH (b) WHERE elementId(b) = r.end\n")
	fmt.Fprintf(&sb, "CREATE (a)-[_:%s]->(b)\n", escapeIdent(relType))
	sb.WriteString("SET _ += r.props")
	return sb.String()
}

// cleanupTagsQuery removes the internal tag property from all nodes
func cleanupTagsQuery() string {
	return fmt.Sprintf("MATCH (n) WHERE n.%s IS NOT NULL REMOVE n.%s", TagProperty, TagProperty)
}
