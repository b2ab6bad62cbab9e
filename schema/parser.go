package schema

import (
	"fmt"
	"log/slog"

	"github.com/c360/relgraph/errors"
)

// Parse parses schema text into its AST form. Syntax problems are reported
// as ErrSchemaParse; identifier and primary-key violations as
// ErrSchemaSemantic.
func Parse(input string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lex := newLexer(input)
	tokens, err := lex.tokenize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSchemaParse, err)
	}
	if lex.legacyRelation {
		logger.Warn("the RELATION keyword is deprecated, use RELATIONSHIP instead")
	}

	p := &parser{tokens: tokens}
	file, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	return file, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) cur() token {
	return p.tokens[p.pos]
}

func (p *parser) peek() token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.cur()
	if tok.kind != kind {
		return token{}, p.parseErrorf(tok, "expected %s, found %s %q", kind, tok.kind, tok.text)
	}
	return p.advance(), nil
}

func (p *parser) parseErrorf(tok token, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", errors.ErrSchemaParse, tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) semanticErrorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", errors.ErrSchemaSemantic, line, fmt.Sprintf(format, args...))
}

func (p *parser) parseFile() (*File, error) {
	file := &File{}
	seen := make(map[string]bool)

	for p.cur().kind != tokenEOF {
		entity, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		if seen[entity.Type] {
			return nil, p.semanticErrorf(entity.Line,
				"conflicting definitions of entity %q, each entity may only be specified once", entity.Type)
		}
		seen[entity.Type] = true
		file.Entities = append(file.Entities, entity)
	}
	return file, nil
}

func (p *parser) parseEntity() (*Entity, error) {
	start, err := p.expect(tokenEntity)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}
	name, err := p.expect(tokenString)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenColon); err != nil {
		return nil, err
	}

	entity := &Entity{Type: name.text, Line: start.line}
	identifiers := make(map[string]bool)

	for {
		switch p.cur().kind {
		case tokenEOF, tokenEntity:
			return entity, nil
		case tokenNode, tokenRelationship, tokenName:
			element, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			if element.Identifier != "" {
				if identifiers[element.Identifier] {
					return nil, p.semanticErrorf(element.Line,
						"conflicting definitions of identifier %q in entity %q, an identifier must be unique",
						element.Identifier, entity.Type)
				}
				identifiers[element.Identifier] = true
			}
			if element.Rel != nil {
				for _, endpoint := range []*EndpointDecl{element.Rel.Start, element.Rel.End} {
					if endpoint.Identifier != "" && !identifiers[endpoint.Identifier] {
						return nil, p.semanticErrorf(endpoint.Line,
							"relationship references identifier %q which is not declared above in entity %q",
							endpoint.Identifier, entity.Type)
					}
				}
			}
			entity.Elements = append(entity.Elements, element)
		default:
			return nil, p.parseErrorf(p.cur(), "expected NODE, RELATIONSHIP or wrapper, found %s %q",
				p.cur().kind, p.cur().text)
		}
	}
}

// parseElement parses a possibly wrapped NODE or RELATIONSHIP declaration
// with its identifier and attribute lines
func (p *parser) parseElement() (*Element, error) {
	element, err := p.parseWrappedDecl()
	if err != nil {
		return nil, err
	}

	if p.cur().kind == tokenName {
		element.Identifier = p.advance().text
	}
	if _, err := p.expect(tokenColon); err != nil {
		return nil, err
	}

	primarySeen := ""
	for p.cur().kind == tokenPlus || p.cur().kind == tokenMinus {
		line, err := p.parseAttrLine()
		if err != nil {
			return nil, err
		}
		if line.Primary {
			if primarySeen != "" {
				return nil, p.semanticErrorf(line.Line,
					"setting two or more primary keys for one element is not allowed, conflict: %q <-> %q",
					primarySeen, line.Name)
			}
			primarySeen = line.Name
		}
		element.Attributes = append(element.Attributes, line)
	}
	return element, nil
}

func (p *parser) parseWrappedDecl() (*Element, error) {
	tok := p.cur()
	switch tok.kind {
	case tokenNode:
		decl, err := p.parseNodeDecl()
		if err != nil {
			return nil, err
		}
		return &Element{Node: decl, Line: tok.line}, nil
	case tokenRelationship:
		decl, err := p.parseRelDecl()
		if err != nil {
			return nil, err
		}
		return &Element{Rel: decl, Line: tok.line}, nil
	case tokenName:
		name := p.advance()
		if _, err := p.expect(tokenLParen); err != nil {
			return nil, err
		}
		inner, err := p.parseWrappedDecl()
		if err != nil {
			return nil, err
		}
		args, err := p.parseStaticArgs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		call := &WrapperCall{Name: name.text, Args: args, Line: name.line}
		inner.Wrappers = append([]*WrapperCall{call}, inner.Wrappers...)
		inner.Line = name.line
		return inner, nil
	}
	return nil, p.parseErrorf(tok, "expected NODE, RELATIONSHIP or wrapper, found %s %q", tok.kind, tok.text)
}

func (p *parser) parseNodeDecl() (*NodeDecl, error) {
	if _, err := p.expect(tokenNode); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}

	decl := &NodeDecl{}
	for {
		label, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		decl.Labels = append(decl.Labels, label)
		if p.cur().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) parseRelDecl() (*RelDecl, error) {
	if _, err := p.expect(tokenRelationship); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}

	start, err := p.parseEndpoint()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenComma); err != nil {
		return nil, err
	}
	relType, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenComma); err != nil {
		return nil, err
	}
	end, err := p.parseEndpoint()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return &RelDecl{Start: start, Type: relType, End: end}, nil
}

func (p *parser) parseEndpoint() (*EndpointDecl, error) {
	tok := p.cur()
	switch tok.kind {
	case tokenName:
		p.advance()
		return &EndpointDecl{Identifier: tok.text, Line: tok.line}, nil
	case tokenMatch:
		p.advance()
		if _, err := p.expect(tokenLParen); err != nil {
			return nil, err
		}
		match := &MatchDecl{}
		for {
			if p.cur().kind == tokenName && p.peek().kind == tokenEqual {
				name := p.advance()
				p.advance() // '='
				value, err := p.parseArgument()
				if err != nil {
					return nil, err
				}
				match.Conditions = append(match.Conditions, &CondDecl{Name: name.text, Value: value})
			} else {
				label, err := p.parseArgument()
				if err != nil {
					return nil, err
				}
				match.Labels = append(match.Labels, label)
			}
			if p.cur().kind != tokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		if len(match.Labels) == 0 {
			return nil, p.semanticErrorf(tok.line, "MATCH requires at least one label")
		}
		return &EndpointDecl{Match: match, Line: tok.line}, nil
	}
	return nil, p.parseErrorf(tok, "expected identifier or MATCH, found %s %q", tok.kind, tok.text)
}

func (p *parser) parseAttrLine() (*AttrLine, error) {
	sep := p.advance() // '+' or '-'
	name, err := p.expect(tokenName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenEqual); err != nil {
		return nil, err
	}
	value, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	return &AttrLine{
		Name:    name.text,
		Primary: sep.kind == tokenPlus,
		Value:   value,
		Line:    sep.line,
	}, nil
}

// parseArgument parses a value expression: a literal, an Entity.attr
// reference or a wrapper call
func (p *parser) parseArgument() (ValueExpr, error) {
	tok := p.cur()
	switch tok.kind {
	case tokenString, tokenInt, tokenFloat, tokenBool:
		p.advance()
		return &Literal{Value: tok.value}, nil
	case tokenName:
		name := p.advance()
		switch p.cur().kind {
		case tokenDot:
			p.advance()
			attr, err := p.expect(tokenName)
			if err != nil {
				return nil, err
			}
			return &EntityAttrExpr{Entity: name.text, Attr: attr.text}, nil
		case tokenLParen:
			p.advance()
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			args, err := p.parseStaticArgs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokenRParen); err != nil {
				return nil, err
			}
			return &CallExpr{Name: name.text, Arg: arg, StaticArgs: args, Line: name.line}, nil
		}
		return nil, p.parseErrorf(p.cur(), "expected '.' or '(' after identifier %q", name.text)
	}
	return nil, p.parseErrorf(tok, "expected value expression, found %s %q", tok.kind, tok.text)
}

// parseStaticArgs parses the trailing literal arguments of a wrapper call
func (p *parser) parseStaticArgs() ([]any, error) {
	var args []any
	for p.cur().kind == tokenComma {
		p.advance()
		tok := p.cur()
		switch tok.kind {
		case tokenString, tokenInt, tokenFloat, tokenBool:
			p.advance()
			args = append(args, tok.value)
		default:
			return nil, p.parseErrorf(tok, "wrapper arguments after the first must be literals, found %s %q",
				tok.kind, tok.text)
		}
	}
	return args, nil
}
