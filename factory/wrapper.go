package factory

import (
	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// SubgraphWrapper composes pre- and post-processors around a subgraph
// source. The pre-processor may return a nil resource to skip the element
// entirely: the wrapped factory then produces an empty subgraph and no
// supplies are registered for it.
type SubgraphWrapper struct {
	wrapped SubgraphSource
	pre     SubgraphPreprocessor
	post    SubgraphPostprocessor
	args    []any
}

// NewSubgraphWrapper wraps a subgraph source with optional processors and
// their static arguments
func NewSubgraphWrapper(
	wrapped SubgraphSource,
	pre SubgraphPreprocessor,
	post SubgraphPostprocessor,
	args []any,
) *SubgraphWrapper {
	return &SubgraphWrapper{wrapped: wrapped, pre: pre, post: post, args: args}
}

// Kind returns KindSubgraph
func (w *SubgraphWrapper) Kind() Kind { return KindSubgraph }

// Identifier returns the wrapped factory's identifier so supplies keep
// working through wrapper layers
func (w *SubgraphWrapper) Identifier() string { return w.wrapped.Identifier() }

// Construct runs pre-processor, wrapped factory and post-processor in order
func (w *SubgraphWrapper) Construct(res resource.Resource) (*graph.Subgraph, error) {
	if res == nil {
		return graph.NewSubgraph(), nil
	}

	processed := res
	if w.pre != nil {
		var err error
		processed, err = w.pre(res, w.args)
		if err != nil {
			return nil, errors.WrapFatal(err, "SubgraphWrapper", "Construct", "preprocess resource")
		}
	}

	sg, err := w.wrapped.Construct(processed)
	if err != nil {
		return nil, err
	}

	if w.post != nil {
		sg, err = w.post(sg, w.args)
		if err != nil {
			return nil, errors.WrapFatal(err, "SubgraphWrapper", "Construct", "postprocess subgraph")
		}
	}
	if sg == nil {
		sg = graph.NewSubgraph()
	}
	return sg, nil
}
