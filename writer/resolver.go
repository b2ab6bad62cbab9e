package writer

import (
	"context"
	"fmt"

	"github.com/c360/relgraph/graph"
)

// endpointResolver maps relationship endpoints to graph element ids inside
// one transaction. Merge nodes resolve through their primary key, non-merge
// nodes through the internal tag property, and match patterns through a
// bulk MATCH memoised across batches of the same phase.
type endpointResolver struct {
	writer *Writer
	tx     Transaction

	byMergeKey map[string]string
	byTag      map[string]string
	byPattern  map[string][]string
}

func newEndpointResolver(w *Writer, tx Transaction) *endpointResolver {
	return &endpointResolver{
		writer:     w,
		tx:         tx,
		byMergeKey: make(map[string]string),
		byTag:      make(map[string]string),
		byPattern:  make(map[string][]string),
	}
}

type mergeKeyGroup struct {
	primaryLabel string
	primaryKey   string
	values       []any
	valueKeys    []string
}

func mergeEndpointKey(primaryLabel, primaryKey string, value any) string {
	return fmt.Sprintf("%s\x1f%s\x1f%v", primaryLabel, primaryKey, value)
}

// collect resolves every distinct endpoint of the batch's relationships
func (r *endpointResolver) collect(ctx context.Context, rels []*graph.Relationship) error {
	keyGroups := make(map[string]*mergeKeyGroup)
	tagSet := make(map[string]bool)
	patterns := make(map[string]*graph.NodeMatch)

	addNode := func(node *graph.Node) {
		if node.Merge {
			key := mergeEndpointKey(node.PrimaryLabel, node.PrimaryKey, node.PrimaryValue())
			groupKey := node.PrimaryLabel + "\x1f" + node.PrimaryKey
			group, ok := keyGroups[groupKey]
			if !ok {
				group = &mergeKeyGroup{primaryLabel: node.PrimaryLabel, primaryKey: node.PrimaryKey}
				keyGroups[groupKey] = group
			}
			if _, seen := r.byMergeKey[key]; !seen {
				r.byMergeKey[key] = ""
				group.values = append(group.values, node.PrimaryValue())
				group.valueKeys = append(group.valueKeys, key)
			}
		} else {
			tagSet[node.Tag()] = true
		}
	}

	for _, rel := range rels {
		for _, endpoint := range []graph.Endpoint{rel.Start, rel.End} {
			switch e := endpoint.(type) {
			case *graph.Node:
				addNode(e)
			case *graph.NodeMatch:
				patterns[e.PatternKey()] = e
			}
		}
	}

	// Merge-node endpoints, one bulk MATCH per (label, key) group
	for _, group := range keyGroups {
		if len(group.values) == 0 {
			continue
		}
		rows, err := r.tx.Run(ctx, matchByMergeKeyQuery(group.primaryLabel, group.primaryKey),
			map[string]any{"keys": group.values})
		if err != nil {
			return err
		}
		for _, row := range rows {
			key := mergeEndpointKey(group.primaryLabel, group.primaryKey, row["key"])
			if eid, ok := row["eid"].(string); ok {
				r.byMergeKey[key] = eid
			}
		}
	}

	// Non-merge node endpoints by internal tag
	if len(tagSet) > 0 {
		tags := make([]any, 0, len(tagSet))
		for tag := range tagSet {
			tags = append(tags, tag)
		}
		rows, err := r.tx.Run(ctx, matchByTagQuery(), map[string]any{"tags": tags})
		if err != nil {
			return err
		}
		for _, row := range rows {
			tag, _ := row["tag"].(string)
			if eid, ok := row["eid"].(string); ok {
				r.byTag[tag] = eid
			}
		}
	}

	// Match patterns, memoised across batches within one phase
	for patternKey, match := range patterns {
		if cached, ok := r.writer.matchCache.Get(patternKey); ok {
			r.byPattern[patternKey] = cached
			continue
		}
		query, params := matchPatternQuery(match)
		rows, err := r.tx.Run(ctx, query, params)
		if err != nil {
			return err
		}
		eids := make([]string, 0, len(rows))
		for _, row := range rows {
			if eid, ok := row["eid"].(string); ok {
				eids = append(eids, eid)
			}
		}
		r.byPattern[patternKey] = eids
		r.writer.matchCache.Set(patternKey, eids)
	}

	return nil
}

// elementIDs returns the resolved element ids for one endpoint. An endpoint
// that resolved to nothing returns an empty slice.
func (r *endpointResolver) elementIDs(endpoint graph.Endpoint) ([]string, error) {
	switch e := endpoint.(type) {
	case *graph.Node:
		if e.Merge {
			eid := r.byMergeKey[mergeEndpointKey(e.PrimaryLabel, e.PrimaryKey, e.PrimaryValue())]
			if eid == "" {
				return nil, nil
			}
			return []string{eid}, nil
		}
		eid, ok := r.byTag[e.Tag()]
		if !ok {
			return nil, nil
		}
		return []string{eid}, nil
	case *graph.NodeMatch:
		return r.byPattern[e.PatternKey()], nil
	}
	return nil, fmt.Errorf("unsupported endpoint type %T", endpoint)
}
