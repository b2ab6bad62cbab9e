package factory

import (
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// Chain runs a sequence of subgraph factories in order, unioning their
// products. After each factory with a local identifier, the produced node is
// supplied on the resource for consumption by later factories in the same
// plan.
type Chain struct {
	factories []SubgraphSource
}

// NewChain creates a chain over the given factories. Order matters: later
// factories may reference nodes supplied by earlier ones.
func NewChain(factories ...SubgraphSource) *Chain {
	return &Chain{factories: factories}
}

// Kind returns KindSubgraph
func (c *Chain) Kind() Kind { return KindSubgraph }

// Identifier returns the empty string; chains are never named
func (c *Chain) Identifier() string { return "" }

// Len returns the number of factories in the chain
func (c *Chain) Len() int { return len(c.factories) }

// Construct runs all factories in order. A nil resource yields an empty
// subgraph.
func (c *Chain) Construct(res resource.Resource) (*graph.Subgraph, error) {
	sg := graph.NewSubgraph()
	if res == nil {
		return sg, nil
	}

	for _, f := range c.factories {
		product, err := f.Construct(res)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}
		if id := f.Identifier(); id != "" && len(product.Nodes()) > 0 {
			res.Supplies().SetSupply(id, product.Nodes()[0])
		}
		sg.Union(product)
	}
	return sg, nil
}
