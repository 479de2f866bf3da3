// Package parser implements the first-pass recursive-descent parser:
// it walks the token stream produced by lexer.Lex, builds the
// unresolved value tree (tree.Node, with tree.KindSubstitution and
// tree.KindAppend standing in for anything that needs the history
// stack or the env/include collaborators to finish), and records every
// object-field assignment onto a stack.Stack in document order.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strataconf/confcore/errors"
	"github.com/strataconf/confcore/lexer"
	"github.com/strataconf/confcore/stack"
	"github.com/strataconf/confcore/token"
	"github.com/strataconf/confcore/tree"
)

// Parser walks a single document's token stream. A nested include
// splices its own Parser into the same history stack so that
// assignments from an included file land in the right position in
// document order.
type Parser struct {
	tokens     []*token.Token
	pos        int
	hist       *stack.Stack
	errs       []error
	includer   Includer
	baseDir    string
	pathPrefix []string
	// includePrefix is copied onto every substitution piece and
	// append-op this parser builds. spliceInclude leaves it nil on the
	// nested parser and records the include prefix afterwards through
	// stampIncludePrefix instead.
	includePrefix []string
}

// Result is everything a completed parse produced: the unresolved
// value tree, the shared history stack, and any diagnostics
// accumulated along the way.
type Result struct {
	Root  *tree.Node
	Stack *stack.Stack
	Errs  []error
}

// Parse tokenizes and parses src into an unresolved tree.Node plus the
// history stack resolve.Resolve will need. includer may be nil, in
// which case any "include" directive fails as if the target could not
// be read.
func Parse(src string, includer Includer, baseDir string) Result {
	p := &Parser{hist: stack.New(), includer: includer, baseDir: baseDir}
	return p.parseTopLevel(src)
}

func (p *Parser) parseTopLevel(src string) Result {
	toks, lexErrs := lex(src)
	p.tokens = toks
	p.errs = append(p.errs, lexErrs...)

	p.skipSeparators()
	var root *tree.Node
	switch p.peekKind() {
	case token.LBRACE:
		p.advance()
		root = p.parseObjectBody(token.RBRACE)
		p.expect(token.RBRACE, "expected closing '}'")
	case token.LBRACKET:
		p.advance()
		root = p.parseArrayBody()
		p.expect(token.RBRACKET, "expected closing ']'")
	default:
		root = p.parseObjectBody(token.EOF)
	}
	// A top-level array root has no enclosing member assignment to push
	// it (and so fix any pending counters within it); every other root
	// shape already had this happen piece by piece, through each
	// member's own assign call, so this is a no-op for them.
	tree.AssignPendingStackCounters(root, p.hist.Len())
	return Result{Root: root, Stack: p.hist, Errs: p.errs}
}

// lex is a seam so tests can stub tokenization; production code always
// delegates to the real lexer package.
var lex = defaultLex

// --- token-stream navigation ---

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return &token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() *token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind token.Kind, message string) *token.Token {
	if p.peekKind() != kind {
		p.errorf(errors.ReasonUnexpectedToken, "%s", message)
		return nil
	}
	return p.advance()
}

func (p *Parser) errorf(code errors.ReasonCode, format string, args ...any) {
	meta := p.peek().Meta
	line, col := 0, 0
	if meta != nil {
		line, col = meta.Line, meta.Column
	}
	p.errs = append(p.errs, &errors.ParseError{
		ReasonCode: code,
		Message:    sprintf(format, args...),
		Line:       line,
		Column:     col,
	})
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// defaultLex adapts lexer.Lex to the lex seam's signature.
func defaultLex(src string) ([]*token.Token, []error) {
	return lexer.Lex(src)
}

// skipSeparators consumes any run of WHITESPACE/NEWLINE/COMMA tokens,
// collapsing repeats, and reports a duplicate-separator error if two
// commas appear back to back with nothing but whitespace between them.
func (p *Parser) skipSeparators() {
	sawComma := false
	for {
		switch p.peekKind() {
		case token.WHITESPACE, token.NEWLINE:
			p.advance()
		case token.COMMA:
			if sawComma {
				p.errorf(errors.ReasonDuplicateSeparator, "duplicate ',' separator")
			}
			sawComma = true
			p.advance()
		default:
			return
		}
	}
}

// skipWS consumes only inline whitespace (not newlines), returning the
// consumed text so callers that need it for concatenation spacing can
// use it.
func (p *Parser) skipWS() string {
	var sb strings.Builder
	for p.peekKind() == token.WHITESPACE {
		sb.WriteString(p.advance().Value)
	}
	return sb.String()
}

// recoverToSeparator implements panic-mode recovery: after a syntax
// error, skip tokens until the next separator or closing
// delimiter so that one bad member doesn't prevent the rest of the
// document from being checked.
func (p *Parser) recoverToSeparator() {
	for {
		switch p.peekKind() {
		case token.COMMA, token.NEWLINE, token.RBRACE, token.RBRACKET, token.EOF:
			return
		default:
			p.advance()
		}
	}
}

// --- object / member parsing ---

func (p *Parser) parseObjectBody(closing token.Kind) *tree.Node {
	obj := tree.NewObject()
	p.skipSeparators()
	for p.peekKind() != closing && p.peekKind() != token.EOF {
		p.parseMember(obj)
		p.skipSeparators()
	}
	return obj
}

func (p *Parser) parseMember(obj *tree.Node) {
	if p.peekKind() == token.UNQUOTED_STRING && p.peek().Value == "include" {
		p.parseInclude(obj)
		return
	}

	relPath, err := p.parsePathTokens()
	if err != nil {
		p.errs = append(p.errs, err)
		p.recoverToSeparator()
		return
	}
	if len(relPath) == 0 {
		p.errorf(errors.ReasonEmptyPathSegment, "expected a member path")
		p.recoverToSeparator()
		return
	}

	p.skipWS()
	full := append(append([]string(nil), p.pathPrefix...), relPath...)

	switch p.peekKind() {
	case token.EQUAL, token.COLON:
		p.advance()
		p.skipWS()
		val := p.withPathPrefix(full, p.parseValue)
		p.assign(obj, relPath, full, val)
	case token.PLUS_EQUAL:
		p.advance()
		p.skipWS()
		val := p.withPathPrefix(full, p.parseValue)
		op := tree.NewAppend(&tree.AppendOp{
			Path:          full,
			StackCounter:  tree.PendingStackCounter,
			IncludePrefix: p.includePrefix,
			Value:         val,
		})
		p.assign(obj, relPath, full, op)
	case token.LBRACE:
		val := p.withPathPrefix(full, p.parseValue)
		p.assign(obj, relPath, full, val)
	default:
		p.errorf(errors.ReasonMissingSeparator, "expected '=', ':' or '+=' after a member path")
		p.recoverToSeparator()
	}
}

func (p *Parser) withPathPrefix(prefix []string, fn func() *tree.Node) *tree.Node {
	saved := p.pathPrefix
	p.pathPrefix = prefix
	val := fn()
	p.pathPrefix = saved
	return val
}

// assign installs val at relPath within obj (creating intermediate
// objects for a dotted shorthand path such as "a.b.c = 1"), combining
// with any existing value at that exact key per the duplicate-key
// table, then logs the assignment onto the history stack at its
// absolute path. Every intermediate object created or touched while
// walking relPath is also pushed, each capturing its state after the
// leaf assignment below completes — "a.b = 1" must let a later "${a}"
// resolve against {b: 1}, not an empty placeholder snapshotted before
// "b" was set. An object-object duplicate-key merge additionally
// pushes the pre-merge existing snapshot and the raw incoming snapshot
// before the merged result.
func (p *Parser) assign(obj *tree.Node, relPath, fullPath []string, val *tree.Node) {
	cur := obj
	prefixLen := len(fullPath) - len(relPath)

	type intermediate struct {
		path []string
		node *tree.Node
	}
	var intermediates []intermediate
	for i, seg := range relPath[:len(relPath)-1] {
		child, ok := cur.Field(seg)
		if !ok || child.Kind != tree.KindObject {
			child = tree.NewObject()
			cur.SetField(seg, child)
		}
		cur = child
		intermediates = append(intermediates, intermediate{
			path: append([]string(nil), fullPath[:prefixLen+i+1]...),
			node: cur,
		})
	}

	last := relPath[len(relPath)-1]
	existing, hasExisting := cur.Field(last)
	objectMerge := hasExisting && existing.Kind == tree.KindObject && val.Kind == tree.KindObject

	merged := val
	if hasExisting {
		merged = tree.CombineDuplicateField(existing, val)
	}
	cur.SetField(last, merged)

	for _, im := range intermediates {
		p.hist.Push(im.path, im.node)
	}
	if objectMerge {
		p.hist.Push(fullPath, existing)
		p.hist.Push(fullPath, val)
	}
	p.hist.Push(fullPath, merged)
}

// parsePathTokens consumes a run of path-segment tokens with no
// intervening whitespace and splits them on unquoted dots.
func (p *Parser) parsePathTokens() ([]string, error) {
	var sb strings.Builder
	consumed := false
	for {
		switch p.peekKind() {
		case token.UNQUOTED_STRING, token.NUMBER, token.TRUE, token.FALSE, token.NULL:
			sb.WriteString(p.advance().Value)
			consumed = true
		case token.QUOTED_STRING:
			tok := p.advance()
			sb.WriteByte('"')
			sb.WriteString(tok.Literal)
			sb.WriteByte('"')
			consumed = true
		default:
			if !consumed {
				return nil, &errors.ParseError{ReasonCode: errors.ReasonUnexpectedToken, Message: "expected a path"}
			}
			return tree.ParsePath(sb.String())
		}
	}
}

// --- value parsing ---

func (p *Parser) parseValue() *tree.Node {
	var atoms []*tree.Node
	var wsBefore []string
	for {
		if len(atoms) > 0 {
			ws := p.skipWS()
			switch p.peekKind() {
			case token.NEWLINE, token.COMMA, token.RBRACE, token.RBRACKET, token.EOF:
				goto done
			}
			wsBefore = append(wsBefore, ws)
		}
		atom, ok := p.parseValueAtom()
		if !ok {
			break
		}
		atoms = append(atoms, atom)
	}
done:
	if len(atoms) == 0 {
		p.errorf(errors.ReasonUnexpectedToken, "expected a value")
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarNull})
	}
	if len(atoms) == 1 {
		return atoms[0]
	}
	return p.concatAtoms(atoms, wsBefore)
}

func (p *Parser) parseValueAtom() (*tree.Node, bool) {
	switch p.peekKind() {
	case token.LBRACE:
		p.advance()
		obj := p.parseObjectBody(token.RBRACE)
		p.expect(token.RBRACE, "expected closing '}'")
		return obj, true
	case token.LBRACKET:
		p.advance()
		arr := p.parseArrayBody()
		p.expect(token.RBRACKET, "expected closing ']'")
		return arr, true
	case token.SUB, token.SUB_OPTIONAL:
		return p.parseSubAtom(), true
	case token.QUOTED_STRING, token.TRIPLE_QUOTED_STRING:
		tok := p.advance()
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarString, Str: tok.Literal, Quoted: true}), true
	case token.UNQUOTED_STRING:
		tok := p.advance()
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarString, Str: tok.Value}), true
	case token.NUMBER:
		tok := p.advance()
		return tree.NewScalar(parseNumberScalar(tok.Value)), true
	case token.TRUE:
		p.advance()
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarBool, Bool: true}), true
	case token.FALSE:
		p.advance()
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarBool, Bool: false}), true
	case token.NULL:
		p.advance()
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarNull}), true
	default:
		return nil, false
	}
}

func (p *Parser) parseSubAtom() *tree.Node {
	tok := p.advance()
	path, err := tree.ParsePath(tok.Literal)
	if err != nil {
		p.errs = append(p.errs, err)
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarNull})
	}
	return tree.NewSubstitution(&tree.Substitution{Kind: tree.SubKindUnknown, Pieces: []tree.Piece{{
		IsRef:         true,
		Path:          path,
		Optional:      tok.Kind == token.SUB_OPTIONAL,
		StackCounter:  tree.PendingStackCounter,
		IncludePrefix: p.includePrefix,
	}}})
}

func (p *Parser) parseArrayBody() *tree.Node {
	var items []*tree.Node
	p.skipSeparators()
	idx := 0
	for p.peekKind() != token.RBRACKET && p.peekKind() != token.EOF {
		elemPrefix := append(append([]string(nil), p.pathPrefix...), strconv.Itoa(idx))
		item := p.withPathPrefix(elemPrefix, p.parseValue)
		items = append(items, item)
		idx++
		p.skipSeparators()
	}
	return tree.NewArray(items)
}

// concatAtoms implements object merging, array concatenation and
// string/value concatenation for a run of value atoms found on the
// same value position with no separating newline.
func (p *Parser) concatAtoms(atoms []*tree.Node, wsBefore []string) *tree.Node {
	allArrays, allObjects, allScalarOrSub := true, true, true
	for _, a := range atoms {
		if a.Kind != tree.KindArray {
			allArrays = false
		}
		if a.Kind != tree.KindObject {
			allObjects = false
		}
		if a.Kind != tree.KindScalar && a.Kind != tree.KindSubstitution {
			allScalarOrSub = false
		}
	}
	switch {
	case allArrays:
		result := atoms[0]
		for _, next := range atoms[1:] {
			merged, err := tree.ConcatArrays(result, next)
			if err != nil {
				p.errs = append(p.errs, err)
				break
			}
			result = merged
		}
		return result
	case allObjects:
		result := atoms[0]
		for _, next := range atoms[1:] {
			result = tree.MergeObjects(result, next)
		}
		return result
	case allScalarOrSub:
		return p.concatScalarsAndRefs(atoms, wsBefore)
	default:
		return p.buildSubstitution(atoms, wsBefore)
	}
}

// buildSubstitution handles a concatenation run that mixes substitution
// references with inline object or array atoms, e.g.
// "${base} { a { b = 1 } }". Every non-reference atom in the run must
// agree on a single concrete kind; an object atom next to an array atom
// in the same run is still a genuine kind-mismatch error.
func (p *Parser) buildSubstitution(atoms []*tree.Node, wsBefore []string) *tree.Node {
	kind := tree.SubKindUnknown
	for _, a := range atoms {
		var k tree.SubstitutionKind
		switch a.Kind {
		case tree.KindObject:
			k = tree.SubKindObject
		case tree.KindArray:
			k = tree.SubKindArray
		case tree.KindScalar:
			k = tree.SubKindScalar
		default:
			continue
		}
		if kind != tree.SubKindUnknown && kind != k {
			p.errorf(errors.ReasonKindMismatch, "cannot concatenate values of different kinds")
			return atoms[0]
		}
		kind = k
	}

	return tree.NewSubstitution(&tree.Substitution{Kind: kind, Pieces: concatPieces(atoms, wsBefore)})
}

// concatPieces flattens a concatenation run into a substitution piece
// list, attaching each inter-atom whitespace run to the piece it
// belongs to: folded into a preceding literal piece, captured as
// trailing whitespace on a preceding reference (re-emitted only if the
// reference resolves to a scalar), and dropped after an inline
// container, where spacing has no surface form to survive into.
func concatPieces(atoms []*tree.Node, wsBefore []string) []tree.Piece {
	var pieces []tree.Piece
	for i, a := range atoms {
		if i > 0 && i-1 < len(wsBefore) && wsBefore[i-1] != "" {
			last := &pieces[len(pieces)-1]
			switch {
			case last.IsRef:
				last.TrailingWS = wsBefore[i-1]
			case last.Inline == nil:
				last.Literal += wsBefore[i-1]
			}
		}
		switch a.Kind {
		case tree.KindSubstitution:
			pieces = append(pieces, a.Substitution.Pieces...)
		case tree.KindScalar:
			pieces = append(pieces, tree.Piece{Literal: a.Scalar.String()})
		default:
			pieces = append(pieces, tree.Piece{Inline: a})
		}
	}
	return pieces
}

func (p *Parser) concatScalarsAndRefs(atoms []*tree.Node, wsBefore []string) *tree.Node {
	hasSub := false
	for _, a := range atoms {
		if a.Kind == tree.KindSubstitution {
			hasSub = true
			break
		}
	}
	if !hasSub {
		result := atoms[0].Scalar
		for i, next := range atoms[1:] {
			result = tree.ConcatScalars(result, next.Scalar, wsBefore[i])
		}
		return tree.NewScalar(result)
	}

	return tree.NewSubstitution(&tree.Substitution{Kind: tree.SubKindScalar, Pieces: concatPieces(atoms, wsBefore)})
}

func parseNumberScalar(raw string) *tree.ScalarValue {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &tree.ScalarValue{Kind: tree.ScalarInt, Int: i}
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return &tree.ScalarValue{Kind: tree.ScalarFloat, Float: f}
}
