// Package factory implements the runtime factory graph: small units that,
// given a resource, produce attributes, nodes, relationships or whole
// subgraphs. Compiled entity plans are forests of these factories, optionally
// wrapped with registered pre- and post-processors.
package factory

import (
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// Kind distinguishes the two factory categories
type Kind int

const (
	// KindAttribute factories produce a single attribute
	KindAttribute Kind = iota
	// KindSubgraph factories produce nodes and relationships
	KindSubgraph
)

// Factory is the common contract of all factories
type Factory interface {
	Kind() Kind
}

// AttributeSource produces one attribute from a resource. A nil resource
// short-circuits to a nil attribute; a nil attribute from a pre-processor
// drops the attribute from its enclosing element.
type AttributeSource interface {
	Factory

	// Key returns the attribute key the source produces, empty for
	// label expressions and static wrapper arguments
	Key() string

	// Construct builds the attribute for a resource
	Construct(res resource.Resource) (*graph.Attribute, error)
}

// SubgraphSource produces a subgraph from a resource. A nil resource
// short-circuits to an empty subgraph; this is how pre-processors express
// "skip this element".
type SubgraphSource interface {
	Factory

	// Identifier returns the local identifier under which the produced
	// node is supplied to later factories, empty if unnamed
	Identifier() string

	// Construct builds the subgraph for a resource
	Construct(res resource.Resource) (*graph.Subgraph, error)
}

// AttributePreprocessor transforms the resource before an attribute factory
// runs. Returning a nil resource drops the attribute.
type AttributePreprocessor func(res resource.Resource, args []any) (resource.Resource, error)

// AttributePostprocessor transforms the produced attribute
type AttributePostprocessor func(attr graph.Attribute, args []any) (graph.Attribute, error)

// SubgraphPreprocessor transforms the resource before a subgraph factory
// runs. Returning a nil resource skips the element entirely.
type SubgraphPreprocessor func(res resource.Resource, args []any) (resource.Resource, error)

// SubgraphPostprocessor transforms the produced subgraph
type SubgraphPostprocessor func(sg *graph.Subgraph, args []any) (*graph.Subgraph, error)

// WrapperConstructor builds a full wrapper holding the wrapped factory. The
// returned factory must be of the same kind as the wrapped one.
type WrapperConstructor func(wrapped Factory, args []any) (Factory, error)
