package schema

// File is the parsed form of a whole schema document
type File struct {
	Entities []*Entity
}

// Entity is one ENTITY block. Elements preserve textual order.
type Entity struct {
	Type     string
	Elements []*Element
	Line     int
}

// Element is one node or relationship declaration, possibly wrapped
type Element struct {
	// Wrappers around the declaration, outermost first
	Wrappers []*WrapperCall

	Node *NodeDecl
	Rel  *RelDecl

	Identifier string
	Attributes []*AttrLine
	Line       int
}

// WrapperCall is an IDENT(...) application around an element or value
type WrapperCall struct {
	Name string
	// Args are the static literal arguments after the wrapped operand
	Args []any
	Line int
}

// NodeDecl is a NODE(label, ...) declaration
type NodeDecl struct {
	Labels []ValueExpr
}

// RelDecl is a RELATIONSHIP(start, type, end) declaration
type RelDecl struct {
	Start *EndpointDecl
	Type  ValueExpr
	End   *EndpointDecl
}

// EndpointDecl is a relationship endpoint: a local identifier or a MATCH
// pattern
type EndpointDecl struct {
	Identifier string
	Match      *MatchDecl
	Line       int
}

// MatchDecl is a MATCH(labels..., conditions...) pattern
type MatchDecl struct {
	Labels     []ValueExpr
	Conditions []*CondDecl
}

// CondDecl is one name=value condition inside a MATCH pattern
type CondDecl struct {
	Name  string
	Value ValueExpr
}

// AttrLine is one attribute line of an element. Primary marks the merge key.
type AttrLine struct {
	Name    string
	Primary bool
	Value   ValueExpr
	Line    int
}

// ValueExpr is a literal, an entity attribute reference or a wrapped call
type ValueExpr interface {
	valueExpr()
}

// Literal is a constant scalar value
type Literal struct {
	Value any
}

func (*Literal) valueExpr() {}

// EntityAttrExpr reads an attribute of the current resource, written
// Entity.attr in the schema
type EntityAttrExpr struct {
	Entity string
	Attr   string
}

func (*EntityAttrExpr) valueExpr() {}

// CallExpr applies a registered wrapper to a value expression with optional
// static arguments
type CallExpr struct {
	Name       string
	Arg        ValueExpr
	StaticArgs []any
	Line       int
}

func (*CallExpr) valueExpr() {}
