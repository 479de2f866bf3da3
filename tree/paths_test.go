package tree

import (
	gocheck "gopkg.in/check.v1"
)

type PathsSuite struct{}

var _ = gocheck.Suite(&PathsSuite{})

func (s *PathsSuite) TestParsePathSplitsOnDot(c *gocheck.C) {
	segs, err := ParsePath("a.b.c")
	c.Assert(err, gocheck.IsNil)
	c.Assert(segs, gocheck.DeepEquals, []string{"a", "b", "c"})
}

func (s *PathsSuite) TestParsePathQuotedSegmentKeepsLiteralDot(c *gocheck.C) {
	segs, err := ParsePath(`"a.b".c`)
	c.Assert(err, gocheck.IsNil)
	c.Assert(segs, gocheck.DeepEquals, []string{"a.b", "c"})
}

func (s *PathsSuite) TestParsePathRejectsEmptySegment(c *gocheck.C) {
	_, err := ParsePath("a..b")
	c.Assert(err, gocheck.NotNil)
}

func (s *PathsSuite) TestGetPathValueDescendsObjectsAndArrays(c *gocheck.C) {
	root := NewObject()
	arr := NewArray([]*Node{
		NewScalar(&ScalarValue{Kind: ScalarInt, Int: 10}),
		NewScalar(&ScalarValue{Kind: ScalarInt, Int: 20}),
	})
	root.SetField("list", arr)

	v, ok := root.GetPathValue([]string{"list", "1"})
	c.Assert(ok, gocheck.Equals, true)
	c.Assert(v.Scalar.Int, gocheck.Equals, int64(20))
}

func (s *PathsSuite) TestGetPathValueMissingSegment(c *gocheck.C) {
	root := NewObject()
	_, ok := root.GetPathValue([]string{"missing"})
	c.Assert(ok, gocheck.Equals, false)
}

func (s *PathsSuite) TestPathHasPrefixDetectsSelfReference(c *gocheck.C) {
	c.Assert(PathHasPrefix([]string{"a", "b", "c"}, []string{"a", "b"}), gocheck.Equals, true)
	c.Assert(PathHasPrefix([]string{"a", "b"}, []string{"a", "b"}), gocheck.Equals, true)
	c.Assert(PathHasPrefix([]string{"a", "b"}, []string{"a", "c"}), gocheck.Equals, false)
}
