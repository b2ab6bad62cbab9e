package factory

import (
	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/graph"
	"github.com/c360/relgraph/resource"
)

// StaticAttribute produces the same literal value for every resource
type StaticAttribute struct {
	key   string
	value any
}

// NewStaticAttribute creates an attribute source with a fixed value
func NewStaticAttribute(key string, value any) *StaticAttribute {
	return &StaticAttribute{key: key, value: value}
}

// Kind returns KindAttribute
func (s *StaticAttribute) Kind() Kind { return KindAttribute }

// Key returns the attribute key
func (s *StaticAttribute) Key() string { return s.key }

// Value returns the static value
func (s *StaticAttribute) Value() any { return s.value }

// Construct returns the static attribute, or nil for a nil resource
func (s *StaticAttribute) Construct(res resource.Resource) (*graph.Attribute, error) {
	if res == nil {
		return nil, nil
	}
	attr := graph.NewAttribute(s.key, s.value)
	return &attr, nil
}

// EntityAttribute reads an attribute of the current resource
type EntityAttribute struct {
	key        string
	entityType string
	attrName   string
}

// NewEntityAttribute creates an attribute source reading attrName from
// resources of entityType
func NewEntityAttribute(key, entityType, attrName string) *EntityAttribute {
	return &EntityAttribute{key: key, entityType: entityType, attrName: attrName}
}

// Kind returns KindAttribute
func (e *EntityAttribute) Kind() Kind { return KindAttribute }

// Key returns the attribute key
func (e *EntityAttribute) Key() string { return e.key }

// Construct reads the value from the resource, or returns nil for a nil
// resource
func (e *EntityAttribute) Construct(res resource.Resource) (*graph.Attribute, error) {
	if res == nil {
		return nil, nil
	}
	value, err := res.Get(e.attrName)
	if err != nil {
		return nil, errors.WrapFatal(err, "EntityAttribute", "Construct",
			"read attribute "+e.attrName+" of entity "+e.entityType)
	}
	attr := graph.NewAttribute(e.key, value)
	return &attr, nil
}

// AttributeWrapper composes pre- and post-processors around an attribute
// source. The pre-processor may return a nil resource to drop the attribute.
type AttributeWrapper struct {
	wrapped AttributeSource
	pre     AttributePreprocessor
	post    AttributePostprocessor
	args    []any
}

// NewAttributeWrapper wraps an attribute source with optional processors and
// their static arguments
func NewAttributeWrapper(
	wrapped AttributeSource,
	pre AttributePreprocessor,
	post AttributePostprocessor,
	args []any,
) *AttributeWrapper {
	return &AttributeWrapper{wrapped: wrapped, pre: pre, post: post, args: args}
}

// Kind returns KindAttribute
func (w *AttributeWrapper) Kind() Kind { return KindAttribute }

// Key returns the wrapped source's key
func (w *AttributeWrapper) Key() string { return w.wrapped.Key() }

// Construct runs pre-processor, wrapped factory and post-processor in order
func (w *AttributeWrapper) Construct(res resource.Resource) (*graph.Attribute, error) {
	if res == nil {
		return nil, nil
	}

	processed := res
	if w.pre != nil {
		var err error
		processed, err = w.pre(res, w.args)
		if err != nil {
			return nil, errors.WrapFatal(err, "AttributeWrapper", "Construct", "preprocess resource")
		}
	}

	attr, err := w.wrapped.Construct(processed)
	if err != nil || attr == nil {
		return attr, err
	}

	if w.post != nil {
		result, err := w.post(*attr, w.args)
		if err != nil {
			return nil, errors.WrapFatal(err, "AttributeWrapper", "Construct", "postprocess attribute")
		}
		return &result, nil
	}
	return attr, nil
}
