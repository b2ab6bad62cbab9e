package factory

import (
	"fmt"
	"log/slog"

	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// Matcher resolves relationship endpoints. It either looks up a node
// produced earlier in the same resource's plan under a local identifier, or
// builds a pattern matching pre-existing graph nodes by labels and
// conditions.
type Matcher struct {
	identifier string

	labels     []AttributeSource
	conditions []AttributeSource
}

// NewIdentifierMatcher creates a matcher resolving a local identifier
func NewIdentifierMatcher(identifier string) *Matcher {
	return &Matcher{identifier: identifier}
}

// NewPatternMatcher creates a matcher over pre-existing graph nodes.
// Condition sources with a key become property conditions; keyless sources
// are label expressions.
func NewPatternMatcher(labels, conditions []AttributeSource) *Matcher {
	return &Matcher{labels: labels, conditions: conditions}
}

// Resolve returns the endpoints the matcher yields for a resource. An
// identifier with no supplied node yields nothing (the enclosing
// relationship is silently dropped). A pattern whose conditions were all
// removed by pre-processors yields nothing.
func (m *Matcher) Resolve(res resource.Resource) ([]graph.Endpoint, error) {
	if m.identifier != "" {
		supply, ok := res.Supplies().Supply(m.identifier)
		if !ok {
			return nil, nil
		}
		node, ok := supply.(*graph.Node)
		if !ok {
			return nil, fmt.Errorf("supply %q does not hold a node", m.identifier)
		}
		return []graph.Endpoint{node}, nil
	}

	conditions := make(map[string]any, len(m.conditions))
	for _, source := range m.conditions {
		attr, err := source.Construct(res)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			continue
		}
		conditions[attr.Key] = attr.Value
	}
	// Pre-processors removed every declared condition: no conditions left
	// means no match should be made at all.
	if len(conditions) == 0 && len(m.conditions) > 0 {
		return nil, nil
	}

	labels := make([]string, 0, len(m.labels))
	for _, source := range m.labels {
		attr, err := source.Construct(res)
		if err != nil {
			return nil, err
		}
		if attr == nil || attr.Value == nil {
			continue
		}
		labels = append(labels, fmt.Sprintf("%v", attr.Value))
	}

	return []graph.Endpoint{&graph.NodeMatch{Labels: labels, Conditions: conditions}}, nil
}

// RelationshipFactory builds relationships between matched endpoints. When a
// matcher yields several endpoints, one relationship is produced per pair in
// the Cartesian product.
type RelationshipFactory struct {
	start      *Matcher
	end        *Matcher
	relType    AttributeSource
	attributes []AttributeSource
	primaryKey string
	identifier string
	logger     *slog.Logger
}

// NewRelationshipFactory creates a relationship factory
func NewRelationshipFactory(
	start, end *Matcher,
	relType AttributeSource,
	attributes []AttributeSource,
	primaryKey, identifier string,
	logger *slog.Logger,
) *RelationshipFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationshipFactory{
		start:      start,
		end:        end,
		relType:    relType,
		attributes: attributes,
		primaryKey: primaryKey,
		identifier: identifier,
		logger:     logger,
	}
}

// Kind returns KindSubgraph
func (f *RelationshipFactory) Kind() Kind { return KindSubgraph }

// Identifier returns the local identifier, usually empty for relationships
func (f *RelationshipFactory) Identifier() string { return f.identifier }

// Construct resolves both endpoint matchers and produces one relationship
// per endpoint pair. An endpoint yielding nothing produces an empty
// subgraph.
func (f *RelationshipFactory) Construct(res resource.Resource) (*graph.Subgraph, error) {
	sg := graph.NewSubgraph()
	if res == nil {
		return sg, nil
	}

	starts, err := f.start.Resolve(res)
	if err != nil {
		return nil, err
	}
	ends, err := f.end.Resolve(res)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 || len(ends) == 0 {
		return sg, nil
	}

	typeAttr, err := f.relType.Construct(res)
	if err != nil {
		return nil, err
	}
	if typeAttr == nil || typeAttr.Value == nil {
		return sg, nil
	}
	relType := fmt.Sprintf("%v", typeAttr.Value)

	attributes := make([]graph.Attribute, 0, len(f.attributes))
	for _, source := range f.attributes {
		attr, err := source.Construct(res)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			continue
		}
		attributes = append(attributes, *attr)
	}

	for _, start := range starts {
		for _, end := range ends {
			rel, downgraded := graph.NewRelationship(start, end, relType, attributes, f.primaryKey)
			if downgraded {
				f.logger.Warn("primary key value is null, creating relationship without merge",
					"entity", res.Type(),
					"type", relType,
					"primary_key", f.primaryKey)
			}
			sg.AddRelationship(rel)
		}
	}
	return sg, nil
}
