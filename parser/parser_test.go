package parser

import (
	"fmt"
	"testing"

	gocheck "gopkg.in/check.v1"

	"github.com/strataconf/confcore/tree"
)

func Test(t *testing.T) { gocheck.TestingT(t) }

type ParserSuite struct{}

var _ = gocheck.Suite(&ParserSuite{})

func (s *ParserSuite) TestDottedShorthandCreatesIntermediateObjects(c *gocheck.C) {
	// a.b = 2 -> {a:{b:2}}
	res := Parse(`a.b = 2`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, ok := res.Root.Field("a")
	c.Assert(ok, gocheck.Equals, true)
	b, ok := a.Field("b")
	c.Assert(ok, gocheck.Equals, true)
	c.Assert(b.Scalar.Int, gocheck.Equals, int64(2))
}

func (s *ParserSuite) TestQuotedPathSegmentKeepsDots(c *gocheck.C) {
	res := Parse(`"a.b" = 1`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	c.Assert(res.Root.Keys(), gocheck.DeepEquals, []string{"a.b"})
}

func (s *ParserSuite) TestArrayRootDocument(c *gocheck.C) {
	res := Parse(`[1, 2, 3]`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	c.Assert(res.Root.Kind, gocheck.Equals, tree.KindArray)
	c.Assert(len(res.Root.Items), gocheck.Equals, 3)
}

func (s *ParserSuite) TestArrayConcatenation(c *gocheck.C) {
	// a = [1] [2] [3] -> {a:[1,2,3]}
	res := Parse(`a = [1] [2] [3]`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, _ := res.Root.Field("a")
	c.Assert(a.Kind, gocheck.Equals, tree.KindArray)
	c.Assert(len(a.Items), gocheck.Equals, 3)
}

func (s *ParserSuite) TestDuplicateCommaIsAParseError(c *gocheck.C) {
	// arr = [1,,2] is a parse error.
	res := Parse(`arr = [1,,2]`, nil, "")
	c.Assert(len(res.Errs) > 0, gocheck.Equals, true)
}

func (s *ParserSuite) TestScalarConcatenationPreservesWhitespace(c *gocheck.C) {
	// Whitespace after each reference is
	// captured on that reference so the resolver can reproduce
	// spacing such as "2 before after word" verbatim when the
	// reference resolves to a scalar, without a stray whitespace piece
	// breaking container concatenation.
	res := Parse(`b = ${a} ${c} word`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	b, _ := res.Root.Field("b")
	c.Assert(b.Kind, gocheck.Equals, tree.KindSubstitution)
	c.Assert(b.Substitution.Kind, gocheck.Equals, tree.SubKindScalar)

	pieces := b.Substitution.Pieces
	c.Assert(pieces, gocheck.HasLen, 3)
	c.Assert(pieces[0].IsRef, gocheck.Equals, true)
	c.Assert(pieces[0].Path, gocheck.DeepEquals, []string{"a"})
	c.Assert(pieces[0].TrailingWS, gocheck.Equals, " ")
	c.Assert(pieces[1].IsRef, gocheck.Equals, true)
	c.Assert(pieces[1].Path, gocheck.DeepEquals, []string{"c"})
	c.Assert(pieces[1].TrailingWS, gocheck.Equals, " ")
	c.Assert(pieces[2].IsRef, gocheck.Equals, false)
	c.Assert(pieces[2].Literal, gocheck.Equals, "word")
}

func (s *ParserSuite) TestObjectDuplicateKeyMergesRecursively(c *gocheck.C) {
	// a={b=1,c=2}; a={b=3} -> {b=3,c=2}
	res := Parse(`a={b=1,c=2}
a={b=3}`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, _ := res.Root.Field("a")
	c.Assert(a.Kind, gocheck.Equals, tree.KindObject)
	c.Assert(a.Keys(), gocheck.DeepEquals, []string{"b", "c"})
	b, _ := a.Field("b")
	c.Assert(b.Scalar.Int, gocheck.Equals, int64(3))
}

func (s *ParserSuite) TestScalarDuplicateKeyLastWriteWins(c *gocheck.C) {
	// a=1; a=2 -> a=2
	res := Parse(`a=1
a=2`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, _ := res.Root.Field("a")
	c.Assert(a.Scalar.Int, gocheck.Equals, int64(2))
}

func (s *ParserSuite) TestObjectThenSubstitutionPrependsExistingAsPiece(c *gocheck.C) {
	// object x substitution -> rewrite: existing prepended as a piece,
	// kind fixes to object. The resolver performs the actual merge.
	res := Parse(`bar = {foo:42, baz:${bar.foo}}
bar = ${somewhere}`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	bar, _ := res.Root.Field("bar")
	c.Assert(bar.Kind, gocheck.Equals, tree.KindSubstitution)
	c.Assert(bar.Substitution.Kind, gocheck.Equals, tree.SubKindObject)
	c.Assert(len(bar.Substitution.Pieces), gocheck.Equals, 2)
	c.Assert(bar.Substitution.Pieces[0].IsRef, gocheck.Equals, false)
	c.Assert(bar.Substitution.Pieces[0].Inline.Kind, gocheck.Equals, tree.KindObject)
	c.Assert(bar.Substitution.Pieces[1].IsRef, gocheck.Equals, true)
}

func (s *ParserSuite) TestSubstitutionThenObjectAppendsInterruptPiece(c *gocheck.C) {
	// substitution x object -> append as interrupt, kind fixes to
	// object.
	res := Parse(`foo = ${elsewhere}
foo = {a:1}`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	foo, _ := res.Root.Field("foo")
	c.Assert(foo.Kind, gocheck.Equals, tree.KindSubstitution)
	c.Assert(foo.Substitution.Kind, gocheck.Equals, tree.SubKindObject)
	c.Assert(len(foo.Substitution.Pieces), gocheck.Equals, 2)
	c.Assert(foo.Substitution.Pieces[0].IsRef, gocheck.Equals, true)
	c.Assert(foo.Substitution.Pieces[1].Interrupt, gocheck.Equals, true)
	c.Assert(foo.Substitution.Pieces[1].Inline.Kind, gocheck.Equals, tree.KindObject)
}

func (s *ParserSuite) TestObjectMergePushesPreAndPostSnapshots(c *gocheck.C) {
	// A duplicate-key object merge pushes the
	// pre-merge existing snapshot, the raw incoming snapshot, and the
	// merged result, in that order.
	res := Parse(`a = {b = 1}
a = {c = 2}`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)

	var atA []*tree.Node
	for _, e := range res.Stack.Entries() {
		if len(e.Path) == 1 && e.Path[0] == "a" {
			atA = append(atA, e.Value)
		}
	}
	// First assignment, then the merge's three pushes.
	c.Assert(atA, gocheck.HasLen, 4)
	pre, incoming, merged := atA[1], atA[2], atA[3]
	c.Assert(pre.Keys(), gocheck.DeepEquals, []string{"b"})
	c.Assert(incoming.Keys(), gocheck.DeepEquals, []string{"c"})
	c.Assert(merged.Keys(), gocheck.DeepEquals, []string{"b", "c"})
}

func (s *ParserSuite) TestPlusEqualsProducesAppendNode(c *gocheck.C) {
	// "a += [x]" becomes a KindAppend
	// node carrying the self-path and the new value, left for the
	// resolver to concatenate against whatever a currently holds.
	res := Parse(`a = {b=1}
a += [x]`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, _ := res.Root.Field("a")
	c.Assert(a.Kind, gocheck.Equals, tree.KindAppend)
	c.Assert(a.Append.Path, gocheck.DeepEquals, []string{"a"})
	c.Assert(a.Append.Value.Kind, gocheck.Equals, tree.KindArray)
}

func (s *ParserSuite) TestInlineObjectConcatenatedWithSubstitution(c *gocheck.C) {
	// foo = ${base} { a { b = 1 }, c = [1] }
	// must not raise a kind-mismatch error; it builds a Substitution
	// whose pieces are [ref(base), inline-object].
	res := Parse(`base {}
foo = ${base} { a { b = 1 }, c = [1] }`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	foo, _ := res.Root.Field("foo")
	c.Assert(foo.Kind, gocheck.Equals, tree.KindSubstitution)
	c.Assert(foo.Substitution.Kind, gocheck.Equals, tree.SubKindObject)
	pieces := foo.Substitution.Pieces
	c.Assert(pieces[0].IsRef, gocheck.Equals, true)
	c.Assert(pieces[0].Path, gocheck.DeepEquals, []string{"base"})
	last := pieces[len(pieces)-1]
	c.Assert(last.IsRef, gocheck.Equals, false)
	c.Assert(last.Inline.Kind, gocheck.Equals, tree.KindObject)
	inline := last.Inline
	aNode, ok := inline.Field("a")
	c.Assert(ok, gocheck.Equals, true)
	c.Assert(aNode.Kind, gocheck.Equals, tree.KindObject)
}

func (s *ParserSuite) TestOptionalSubstitutionMarksPieceOptional(c *gocheck.C) {
	// a = ${?nonexistent.path}
	res := Parse(`a = ${?nonexistent.path}`, nil, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	a, _ := res.Root.Field("a")
	c.Assert(a.Kind, gocheck.Equals, tree.KindSubstitution)
	c.Assert(a.Substitution.Pieces[0].Optional, gocheck.Equals, true)
	c.Assert(a.Substitution.Pieces[0].Path, gocheck.DeepEquals, []string{"nonexistent", "path"})
}

// stubIncluder returns a fixed source for any locator, recording the
// kind/locator it was asked for.
type stubIncluder struct {
	src        string
	err        error
	gotKind    IncludeKind
	gotLocator string
}

func (si *stubIncluder) ReadInclude(kind IncludeKind, locator string) (string, error) {
	si.gotKind = kind
	si.gotLocator = locator
	if si.err != nil {
		return "", si.err
	}
	return si.src, nil
}

func (s *ParserSuite) TestIncludeSplicesFieldsAtCurrentPosition(c *gocheck.C) {
	inc := &stubIncluder{src: `x = 1
y = 2`}
	res := Parse(`outer {
  include file("child.conf")
  z = 3
}`, inc, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	c.Assert(inc.gotKind, gocheck.Equals, IncludeFile)
	c.Assert(inc.gotLocator, gocheck.Equals, "child.conf")

	outer, ok := res.Root.Field("outer")
	c.Assert(ok, gocheck.Equals, true)
	c.Assert(outer.Keys(), gocheck.DeepEquals, []string{"x", "y", "z"})
}

func (s *ParserSuite) TestIncludeStampsPrefixAndAdvancesStackCounter(c *gocheck.C) {
	inc := &stubIncluder{src: `x = ${y}
y = 1`}
	res := Parse(`seed = 0
outer {
  include "child.conf"
}`, inc, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)

	outer, _ := res.Root.Field("outer")
	x, _ := outer.Field("x")
	c.Assert(x.Kind, gocheck.Equals, tree.KindSubstitution)
	piece := x.Substitution.Pieces[0]
	c.Assert(piece.IncludePrefix, gocheck.DeepEquals, []string{"outer"})
	// "seed = 0" pushed one entry before the include spliced in, so the
	// reference's counter must have advanced past it.
	c.Assert(piece.StackCounter >= 1, gocheck.Equals, true)
}

func (s *ParserSuite) TestRequiredIncludeFailureIsFatal(c *gocheck.C) {
	inc := &stubIncluder{err: fmt.Errorf("not found")}
	res := Parse(`include required(file("missing.conf"))`, inc, "")
	c.Assert(len(res.Errs) > 0, gocheck.Equals, true)
}

func (s *ParserSuite) TestOptionalIncludeFailureYieldsEmptyObject(c *gocheck.C) {
	inc := &stubIncluder{err: fmt.Errorf("not found")}
	res := Parse(`include file("missing.conf")
z = 1`, inc, "")
	c.Assert(res.Errs, gocheck.HasLen, 0)
	c.Assert(res.Root.Keys(), gocheck.DeepEquals, []string{"z"})
}

func (s *ParserSuite) TestIncludeReturningArrayIsAnError(c *gocheck.C) {
	inc := &stubIncluder{src: `[1, 2]`}
	res := Parse(`include "arr.conf"`, inc, "")
	c.Assert(len(res.Errs) > 0, gocheck.Equals, true)
}
