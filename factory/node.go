package factory

import (
	"fmt"
	"log/slog"

	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// NodeFactory builds one node per resource from label and attribute sources
type NodeFactory struct {
	labels     []AttributeSource
	attributes []AttributeSource
	primaryKey string
	identifier string
	logger     *slog.Logger
}

// NewNodeFactory creates a node factory. primaryKey names the merge key
// among the attribute sources, empty for plain creation. identifier names
// the produced node for later relationship endpoints.
func NewNodeFactory(
	labels, attributes []AttributeSource,
	primaryKey, identifier string,
	logger *slog.Logger,
) *NodeFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeFactory{
		labels:     labels,
		attributes: attributes,
		primaryKey: primaryKey,
		identifier: identifier,
		logger:     logger,
	}
}

// Kind returns KindSubgraph
func (f *NodeFactory) Kind() Kind { return KindSubgraph }

// Identifier returns the local identifier of the produced node
func (f *NodeFactory) Identifier() string { return f.identifier }

// Construct evaluates label and attribute sources and produces a subgraph
// holding the single node. Attribute sources yielding nil (dropped by a
// pre-processor) are omitted. A nil primary key value downgrades the node
// to plain creation with a warning.
func (f *NodeFactory) Construct(res resource.Resource) (*graph.Subgraph, error) {
	sg := graph.NewSubgraph()
	if res == nil {
		return sg, nil
	}

	labels := make([]string, 0, len(f.labels))
	for _, source := range f.labels {
		attr, err := source.Construct(res)
		if err != nil {
			return nil, err
		}
		if attr == nil || attr.Value == nil {
			continue
		}
		if label, ok := attr.Value.(string); ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, fmt.Sprintf("%v", attr.Value))
		}
	}

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

	node, downgraded := graph.NewNode(labels, attributes, f.primaryKey)
	if downgraded {
		f.logger.Warn("primary key value is null, creating node without merge",
			"entity", res.Type(),
			"primary_key", f.primaryKey,
			"labels", labels)
	}
	sg.AddNode(node)
	return sg, nil
}
