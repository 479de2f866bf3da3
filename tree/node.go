// Package tree implements the unified value model flowing through the
// lexer -> parser -> resolver -> accessor pipeline: objects, arrays,
// scalars and the intermediate substitution placeholder produced by
// the first-pass parser before resolution. A single Node type switched
// on Kind keeps every traversal total; an interface per variant would
// scatter the combination rules across types.
package tree

import (
	"strconv"

	"github.com/strataconf/confcore/source"
)

// Kind identifies which variant of Node is populated.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindScalar
	// KindSubstitution nodes only ever exist between the first parser
	// pass and the resolver; a fully resolved tree never contains one.
	KindSubstitution
	// KindAppend nodes represent an unresolved "+=" assignment; like
	// KindSubstitution they only exist until the resolver runs.
	KindAppend
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	case KindSubstitution:
		return "substitution"
	case KindAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Node is the single value type flowing through the lexer -> parser ->
// resolver -> accessor pipeline.
type Node struct {
	Kind Kind

	// Object fields. keys preserves first-seen insertion order; fields
	// is the lookup index. Mutating either without the other is a bug,
	// so both are only ever touched through SetField/DeleteField.
	keys   []string
	fields map[string]*Node

	// Array fields.
	Items []*Node

	// Scalar field.
	Scalar *ScalarValue

	// Substitution field, populated only for KindSubstitution nodes.
	Substitution *Substitution

	// Append field, populated only for KindAppend nodes.
	Append *AppendOp

	Meta *source.Meta

	parent      *Node
	keyInParent string
	idxInParent int
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, fields: make(map[string]*Node)}
}

// NewArray returns an array node wrapping items. Parent back-references
// are wired up for each item.
func NewArray(items []*Node) *Node {
	n := &Node{Kind: KindArray, Items: items}
	for i, item := range items {
		item.parent = n
		item.idxInParent = i
	}
	return n
}

// NewScalar wraps a scalar value.
func NewScalar(v *ScalarValue) *Node {
	return &Node{Kind: KindScalar, Scalar: v}
}

// NewSubstitution wraps a substitution placeholder.
func NewSubstitution(s *Substitution) *Node {
	return &Node{Kind: KindSubstitution, Substitution: s}
}

// NewAppend wraps a "+=" placeholder.
func NewAppend(a *AppendOp) *Node {
	return &Node{Kind: KindAppend, Append: a}
}

// Keys returns the object's field names in insertion order. Returns nil
// for non-object nodes.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	return n.keys
}

// Field looks up a direct child of an object node by key.
func (n *Node) Field(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// SetField inserts or replaces a field on an object node, preserving
// the original insertion position on replace and appending on insert.
func (n *Node) SetField(key string, value *Node) {
	if n.Kind != KindObject {
		panic("tree: SetField on non-object node")
	}
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	if _, exists := n.fields[key]; !exists {
		n.keys = append(n.keys, key)
	}
	value.parent = n
	value.keyInParent = key
	n.fields[key] = value
}

// DeleteField removes a field, preserving relative order of the rest.
func (n *Node) DeleteField(key string) {
	if n.Kind != KindObject {
		return
	}
	if _, exists := n.fields[key]; !exists {
		return
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Parent returns the containing node, or nil at the document root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// AbsolutePath walks parent back-references to compute this node's path
// from the document root. Array elements contribute their index,
// rendered as a decimal string segment.
func (n *Node) AbsolutePath() []string {
	if n == nil || n.parent == nil {
		return nil
	}
	var segments []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		switch cur.parent.Kind {
		case KindObject:
			segments = append(segments, cur.keyInParent)
		case KindArray:
			segments = append(segments, indexSegment(cur.idxInParent))
		}
	}
	// segments were appended root-ward; reverse in place.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments
}

func indexSegment(i int) string {
	return strconv.Itoa(i)
}

// IndexSegment renders an array index as the absolute-path segment
// string GetPathValue expects.
func IndexSegment(i int) string {
	return indexSegment(i)
}

// ReplaceItems replaces an array node's items wholesale, fixing up
// parent/index back-references so AbsolutePath stays correct. Used by
// the resolver when an optional substitution elides to nothing and its
// array slot must be removed with sibling indices decremented.
func (n *Node) ReplaceItems(items []*Node) {
	n.Items = items
	for i, item := range items {
		item.parent = n
		item.idxInParent = i
	}
}

// IsUnresolved reports whether n, or anything reachable beneath it, is
// still a KindSubstitution or KindAppend placeholder.
func (n *Node) IsUnresolved() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindSubstitution, KindAppend:
		return true
	case KindObject:
		for _, k := range n.keys {
			if n.fields[k].IsUnresolved() {
				return true
			}
		}
	case KindArray:
		for _, item := range n.Items {
			if item.IsUnresolved() {
				return true
			}
		}
	}
	return false
}

// DeepCopy returns a structurally independent copy of n. Used when the
// history stack snapshots a value so that later in-place mutation of
// the live tree cannot retroactively change a past snapshot's shape.
func DeepCopy(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Kind: n.Kind, Meta: n.Meta}
	switch n.Kind {
	case KindObject:
		cp.fields = make(map[string]*Node, len(n.fields))
		cp.keys = append([]string(nil), n.keys...)
		for _, k := range n.keys {
			child := DeepCopy(n.fields[k])
			child.parent = cp
			child.keyInParent = k
			cp.fields[k] = child
		}
	case KindArray:
		cp.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			child := DeepCopy(item)
			child.parent = cp
			child.idxInParent = i
			cp.Items[i] = child
		}
	case KindScalar:
		v := *n.Scalar
		cp.Scalar = &v
	case KindSubstitution:
		s := *n.Substitution
		s.Pieces = make([]Piece, len(n.Substitution.Pieces))
		for i, piece := range n.Substitution.Pieces {
			piece.Path = append([]string(nil), piece.Path...)
			piece.IncludePrefix = append([]string(nil), piece.IncludePrefix...)
			piece.Inline = DeepCopy(piece.Inline)
			s.Pieces[i] = piece
		}
		cp.Substitution = &s
	case KindAppend:
		a := *n.Append
		a.Value = DeepCopy(n.Append.Value)
		cp.Append = &a
	}
	return cp
}
