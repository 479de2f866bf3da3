package parser

import (
	"github.com/strataconf/confcore/errors"
	"github.com/strataconf/confcore/stack"
	"github.com/strataconf/confcore/token"
	"github.com/strataconf/confcore/tree"
)

// IncludeKind distinguishes the three forms of include-source locator:
// a bare string literal whose interpretation is left to the
// collaborator, an explicit file(...) path, or an explicit url(...).
type IncludeKind int

const (
	IncludeHeuristic IncludeKind = iota
	IncludeFile
	IncludeURL
)

// Includer reads the source named by an "include" directive. kind tells
// the collaborator which form was written in the document; locator is
// the literal string inside the parens (or the bare string itself for
// IncludeHeuristic). A non-nil error means the source could not be
// read; parseInclude decides whether that is fatal based on whether
// "required(...)" wrapped the directive.
type Includer interface {
	ReadInclude(kind IncludeKind, locator string) (string, error)
}

// parseInclude handles the "include" lexeme inside an object body. It
// is only ever called from parseMember, which has already peeked the
// "include" token without consuming it.
func (p *Parser) parseInclude(obj *tree.Node) {
	p.advance() // "include"
	p.skipWS()

	required := false
	if p.peekKind() == token.UNQUOTED_STRING && p.peek().Value == "required" {
		required = true
		p.advance()
		p.skipWS()
		p.expect(token.LPAREN, "expected '(' after 'required'")
		p.skipWS()
	}

	kind := IncludeHeuristic
	var locator string

	switch {
	case p.peekKind() == token.UNQUOTED_STRING && p.peek().Value == "file":
		kind = IncludeFile
		p.advance()
		p.skipWS()
		p.expect(token.LPAREN, "expected '(' after 'file'")
		p.skipWS()
		locator = p.expectStringLiteral()
		p.skipWS()
		p.expect(token.RPAREN, "expected ')'")
	case p.peekKind() == token.UNQUOTED_STRING && p.peek().Value == "url":
		kind = IncludeURL
		p.advance()
		p.skipWS()
		p.expect(token.LPAREN, "expected '(' after 'url'")
		p.skipWS()
		locator = p.expectStringLiteral()
		p.skipWS()
		p.expect(token.RPAREN, "expected ')'")
	case p.peekKind() == token.QUOTED_STRING || p.peekKind() == token.TRIPLE_QUOTED_STRING:
		locator = p.advance().Literal
	default:
		p.errorf(errors.ReasonInvalidIncludeForm, "expected a string literal, file(...) or url(...) after 'include'")
		p.recoverToSeparator()
		return
	}

	if required {
		p.skipWS()
		p.expect(token.RPAREN, "expected ')' closing 'required('")
	}

	if p.includer == nil {
		if required {
			p.errorf(errors.ReasonRequiredIncludeFailed, "no include collaborator configured for required include %q", locator)
		}
		return
	}

	src, err := p.includer.ReadInclude(kind, locator)
	if err != nil {
		if required {
			p.errorf(errors.ReasonRequiredIncludeFailed, "required include %q failed: %v", locator, err)
		}
		return
	}

	p.spliceInclude(obj, src)
}

func (p *Parser) expectStringLiteral() string {
	switch p.peekKind() {
	case token.QUOTED_STRING, token.TRIPLE_QUOTED_STRING:
		return p.advance().Literal
	default:
		p.errorf(errors.ReasonInvalidIncludeForm, "expected a quoted string literal")
		return ""
	}
}

// spliceInclude lexes and first-pass-parses src as an independent
// document (its own history stack, its own path numbering starting from
// the document root), then splices the result into obj at the outer
// parser's current position: the included object's fields are
// merged in using the same duplicate-key rules as any other member, its
// stack entries are re-pushed onto the outer stack with the outer path
// prepended, and every unresolved substitution or append-op beneath its
// root has the outer path recorded as an additional include prefix and
// its stack counter advanced by the outer stack's length at splice
// time, so that references written inside the included document resolve
// against the composite tree exactly as if the outer parser had parsed
// them in place.
func (p *Parser) spliceInclude(obj *tree.Node, src string) {
	nested := &Parser{hist: stack.New(), includer: p.includer, baseDir: p.baseDir}
	result := nested.parseTopLevel(src)
	p.errs = append(p.errs, result.Errs...)

	if result.Root == nil || result.Root.Kind != tree.KindObject {
		p.errorf(errors.ReasonIncludeReturnedArray, "included source did not resolve to an object")
		return
	}

	counterOffset := p.hist.Len()

	for _, entry := range result.Stack.Entries() {
		stampIncludePrefix(entry.Value, p.pathPrefix, counterOffset)
		fullPath := append(append([]string(nil), p.pathPrefix...), entry.Path...)
		p.hist.Push(fullPath, entry.Value)
	}

	stampIncludePrefix(result.Root, p.pathPrefix, counterOffset)

	for _, key := range result.Root.Keys() {
		val, _ := result.Root.Field(key)
		if existing, ok := obj.Field(key); ok {
			val = tree.CombineDuplicateField(existing, val)
		}
		obj.SetField(key, val)
	}
}

// stampIncludePrefix walks every substitution piece and append-op
// reachable beneath n, prepending prefix onto its IncludePrefix (a
// doubly-nested include accumulates both levels, outermost segments
// first) and advancing its StackCounter by offset.
func stampIncludePrefix(n *tree.Node, prefix []string, offset int) {
	if n == nil {
		return
	}
	switch n.Kind {
	case tree.KindObject:
		for _, k := range n.Keys() {
			child, _ := n.Field(k)
			stampIncludePrefix(child, prefix, offset)
		}
	case tree.KindArray:
		for _, item := range n.Items {
			stampIncludePrefix(item, prefix, offset)
		}
	case tree.KindSubstitution:
		for i := range n.Substitution.Pieces {
			piece := &n.Substitution.Pieces[i]
			piece.IncludePrefix = append(append([]string(nil), prefix...), piece.IncludePrefix...)
			piece.StackCounter += offset
			if piece.Inline != nil {
				stampIncludePrefix(piece.Inline, prefix, offset)
			}
		}
	case tree.KindAppend:
		n.Append.IncludePrefix = append(append([]string(nil), prefix...), n.Append.IncludePrefix...)
		n.Append.StackCounter += offset
		stampIncludePrefix(n.Append.Value, prefix, offset)
	}
}
