package schema

import (
	"fmt"
	"log/slog"

	"github.com/c360/relgraph/errors"
	"github.com/c360/relgraph/factory"
	"github.com/c360/relgraph/registry"
)

// Plan is the compiled, executable form of a schema: per entity type, the
// node factories and relationship factories to run against each resource.
type Plan struct {
	entities map[string]*EntityPlan
}

// EntityPlan holds the two factory chains compiled from one ENTITY block
type EntityPlan struct {
	Nodes         *factory.Chain
	Relationships *factory.Chain
}

// Entity returns the plan for an entity type
func (p *Plan) Entity(entityType string) (*EntityPlan, bool) {
	plan, ok := p.entities[entityType]
	return plan, ok
}

// HasNodes reports whether the entity type produces nodes
func (p *Plan) HasNodes(entityType string) bool {
	plan, ok := p.entities[entityType]
	return ok && plan.Nodes.Len() > 0
}

// HasRelationships reports whether the entity type produces relationships
func (p *Plan) HasRelationships(entityType string) bool {
	plan, ok := p.entities[entityType]
	return ok && plan.Relationships.Len() > 0
}

// EntityTypes lists the entity types the plan covers
func (p *Plan) EntityTypes() []string {
	types := make([]string, 0, len(p.entities))
	for entityType := range p.entities {
		types = append(types, entityType)
	}
	return types
}

// Compile parses schema text and compiles it into an executable plan,
// resolving wrapper names against the given registry snapshot.
func Compile(input string, snapshot registry.Snapshot, logger *slog.Logger) (*Plan, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := Parse(input, logger)
	if err != nil {
		return nil, err
	}

	c := &compiler{snapshot: snapshot, logger: logger}
	plan := &Plan{entities: make(map[string]*EntityPlan)}

	for _, entity := range file.Entities {
		var nodes, relationships []factory.SubgraphSource
		for _, element := range entity.Elements {
			compiled, err := c.compileElement(entity.Type, element)
			if err != nil {
				return nil, err
			}
			if element.Node != nil {
				nodes = append(nodes, compiled)
			} else {
				relationships = append(relationships, compiled)
			}
		}
		plan.entities[entity.Type] = &EntityPlan{
			Nodes:         factory.NewChain(nodes...),
			Relationships: factory.NewChain(relationships...),
		}
	}
	return plan, nil
}

type compiler struct {
	snapshot registry.Snapshot
	logger   *slog.Logger
}

func (c *compiler) unknownSymbol(name string, line int) error {
	return fmt.Errorf("%w: line %d: wrapper %q is not registered", errors.ErrUnknownSymbol, line, name)
}

// compileElement compiles one declaration into a subgraph factory, applying
// element wrappers innermost-first
func (c *compiler) compileElement(entityType string, element *Element) (factory.SubgraphSource, error) {
	var compiled factory.SubgraphSource
	var err error
	if element.Node != nil {
		compiled, err = c.compileNode(entityType, element)
	} else {
		compiled, err = c.compileRelationship(entityType, element)
	}
	if err != nil {
		return nil, err
	}

	for i := len(element.Wrappers) - 1; i >= 0; i-- {
		compiled, err = c.applySubgraphWrapper(compiled, element.Wrappers[i])
		if err != nil {
			return nil, err
		}
	}
	return compiled, nil
}

func (c *compiler) compileNode(entityType string, element *Element) (factory.SubgraphSource, error) {
	labels := make([]factory.AttributeSource, 0, len(element.Node.Labels))
	for _, expr := range element.Node.Labels {
		source, err := c.compileValue("", entityType, expr)
		if err != nil {
			return nil, err
		}
		labels = append(labels, source)
	}

	attributes, primaryKey, err := c.compileAttrLines(entityType, element.Attributes)
	if err != nil {
		return nil, err
	}

	return factory.NewNodeFactory(labels, attributes, primaryKey, element.Identifier, c.logger), nil
}

func (c *compiler) compileRelationship(entityType string, element *Element) (factory.SubgraphSource, error) {
	start, err := c.compileEndpoint(entityType, element.Rel.Start)
	if err != nil {
		return nil, err
	}
	end, err := c.compileEndpoint(entityType, element.Rel.End)
	if err != nil {
		return nil, err
	}
	relType, err := c.compileValue("", entityType, element.Rel.Type)
	if err != nil {
		return nil, err
	}

	attributes, primaryKey, err := c.compileAttrLines(entityType, element.Attributes)
	if err != nil {
		return nil, err
	}

	return factory.NewRelationshipFactory(
		start, end, relType, attributes, primaryKey, element.Identifier, c.logger), nil
}

func (c *compiler) compileEndpoint(entityType string, decl *EndpointDecl) (*factory.Matcher, error) {
	if decl.Identifier != "" {
		return factory.NewIdentifierMatcher(decl.Identifier), nil
	}

	labels := make([]factory.AttributeSource, 0, len(decl.Match.Labels))
	for _, expr := range decl.Match.Labels {
		source, err := c.compileValue("", entityType, expr)
		if err != nil {
			return nil, err
		}
		labels = append(labels, source)
	}
	conditions := make([]factory.AttributeSource, 0, len(decl.Match.Conditions))
	for _, cond := range decl.Match.Conditions {
		source, err := c.compileValue(cond.Name, entityType, cond.Value)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, source)
	}
	return factory.NewPatternMatcher(labels, conditions), nil
}

func (c *compiler) compileAttrLines(
	entityType string,
	lines []*AttrLine,
) ([]factory.AttributeSource, string, error) {
	attributes := make([]factory.AttributeSource, 0, len(lines))
	primaryKey := ""
	for _, line := range lines {
		source, err := c.compileValue(line.Name, entityType, line.Value)
		if err != nil {
			return nil, "", err
		}
		attributes = append(attributes, source)
		if line.Primary {
			primaryKey = line.Name
		}
	}
	return attributes, primaryKey, nil
}

// compileValue compiles a value expression into an attribute source carrying
// the given key
func (c *compiler) compileValue(key, entityType string, expr ValueExpr) (factory.AttributeSource, error) {
	switch e := expr.(type) {
	case *Literal:
		return factory.NewStaticAttribute(key, e.Value), nil
	case *EntityAttrExpr:
		return factory.NewEntityAttribute(key, e.Entity, e.Attr), nil
	case *CallExpr:
		inner, err := c.compileValue(key, entityType, e.Arg)
		if err != nil {
			return nil, err
		}
		return c.applyAttributeWrapper(inner, e)
	}
	return nil, fmt.Errorf("%w: unsupported value expression %T", errors.ErrSchemaParse, expr)
}

// applyAttributeWrapper resolves a wrapper call around an attribute source.
// Subgraph processors applied to an attribute target are a declared category
// mismatch: a warning is logged and the wrapper is skipped.
func (c *compiler) applyAttributeWrapper(
	inner factory.AttributeSource,
	call *CallExpr,
) (factory.AttributeSource, error) {
	entry, ok := c.snapshot.Lookup(call.Name)
	if !ok {
		return nil, c.unknownSymbol(call.Name, call.Line)
	}

	switch entry.Kind {
	case registry.KindAttributePre:
		return factory.NewAttributeWrapper(inner, entry.AttributePre, nil, call.StaticArgs), nil
	case registry.KindAttributePost:
		return factory.NewAttributeWrapper(inner, nil, entry.AttributePost, call.StaticArgs), nil
	case registry.KindWrapper:
		wrapped, err := entry.Wrapper(inner, call.StaticArgs)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: constructing wrapper %q: %v",
				errors.ErrSchemaSemantic, call.Line, call.Name, err)
		}
		if source, ok := wrapped.(factory.AttributeSource); ok {
			return source, nil
		}
		c.logger.Warn("wrapper category mismatch, skipping wrapper",
			"wrapper", call.Name,
			"registered_as", entry.Kind.String(),
			"target", "attribute")
		return inner, nil
	default:
		c.logger.Warn("wrapper category mismatch, skipping wrapper",
			"wrapper", call.Name,
			"registered_as", entry.Kind.String(),
			"target", "attribute")
		return inner, nil
	}
}

// applySubgraphWrapper resolves a wrapper call around a node or relationship
// factory. Attribute processors applied to a subgraph target are a declared
// category mismatch: a warning is logged and the wrapper is skipped.
func (c *compiler) applySubgraphWrapper(
	inner factory.SubgraphSource,
	call *WrapperCall,
) (factory.SubgraphSource, error) {
	entry, ok := c.snapshot.Lookup(call.Name)
	if !ok {
		return nil, c.unknownSymbol(call.Name, call.Line)
	}

	switch entry.Kind {
	case registry.KindSubgraphPre:
		return factory.NewSubgraphWrapper(inner, entry.SubgraphPre, nil, call.Args), nil
	case registry.KindSubgraphPost:
		return factory.NewSubgraphWrapper(inner, nil, entry.SubgraphPost, call.Args), nil
	case registry.KindWrapper:
		wrapped, err := entry.Wrapper(inner, call.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: constructing wrapper %q: %v",
				errors.ErrSchemaSemantic, call.Line, call.Name, err)
		}
		if source, ok := wrapped.(factory.SubgraphSource); ok {
			return source, nil
		}
		c.logger.Warn("wrapper category mismatch, skipping wrapper",
			"wrapper", call.Name,
			"registered_as", entry.Kind.String(),
			"target", "subgraph")
		return inner, nil
	default:
		c.logger.Warn("wrapper category mismatch, skipping wrapper",
			"wrapper", call.Name,
			"registered_as", entry.Kind.String(),
			"target", "subgraph")
		return inner, nil
	}
}
