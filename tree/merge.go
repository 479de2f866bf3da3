package tree

import "github.com/strataconf/confcore/errors"

// CombineDuplicateField implements the duplicate-key combination table
// (existing x new -> result):
//
//	existing \ new   object              array      scalar     substitution
//	object           deep merge          overwrite  overwrite  prepend existing as piece
//	array            overwrite           overwrite  overwrite  prepend existing as piece
//	scalar           overwrite           overwrite  overwrite  prepend existing as piece
//	substitution     append as interrupt (likewise)  (likewise) merge piece lists
//
// "path += value" is held as a KindAppend node (see AppendOp) whose
// result is an array, so a KindAppend value is treated as array-shaped
// for table lookups: it
// overwrites/is overwritten like any other non-object, non-substitution
// value, and is wrapped whole into an Inline piece (never unpacked)
// when it ends up on either side of a substitution combination, since
// it is itself still unresolved and must go through the normal resolve
// path later.
func CombineDuplicateField(existing, incoming *Node) *Node {
	if existing == nil {
		return incoming
	}

	if existing.Kind == KindSubstitution {
		return mergeIntoExistingSubstitution(existing, incoming)
	}

	if incoming.Kind == KindSubstitution {
		return prependExistingAsPiece(existing, incoming)
	}

	if existing.Kind == KindObject && incoming.Kind == KindObject {
		return MergeObjects(existing, incoming)
	}

	return incoming
}

// prependExistingAsPiece handles every "new is substitution" cell of
// the table except the existing-is-substitution row (handled by
// mergeIntoExistingSubstitution instead): the existing value becomes
// the new substitution's first piece, fixing the eventual kind to
// existing's concrete shape.
func prependExistingAsPiece(existing, incoming *Node) *Node {
	sub := incoming.Substitution
	pieces := make([]Piece, 0, len(sub.Pieces)+1)
	pieces = append(pieces, Piece{Inline: existing})
	pieces = append(pieces, sub.Pieces...)
	return NewSubstitution(&Substitution{Kind: subKindFor(existing), Pieces: pieces})
}

// mergeIntoExistingSubstitution handles every "existing is
// substitution" row: a non-substitution incoming value is appended as
// a single interrupt piece (fixing the eventual kind to incoming's
// concrete shape), while an incoming substitution has its piece list
// appended to the existing one with its first piece marked as an
// interrupt.
func mergeIntoExistingSubstitution(existing, incoming *Node) *Node {
	sub := existing.Substitution

	if incoming.Kind == KindSubstitution {
		incomingPieces := append([]Piece(nil), incoming.Substitution.Pieces...)
		if len(incomingPieces) > 0 {
			incomingPieces[0].Interrupt = true
		}
		pieces := append(append([]Piece(nil), sub.Pieces...), incomingPieces...)
		kind := sub.Kind
		if incoming.Substitution.Kind != SubKindUnknown {
			kind = incoming.Substitution.Kind
		}
		return NewSubstitution(&Substitution{Kind: kind, Pieces: pieces})
	}

	piece := Piece{Inline: incoming, Interrupt: true}
	pieces := append(append([]Piece(nil), sub.Pieces...), piece)
	return NewSubstitution(&Substitution{Kind: subKindFor(incoming), Pieces: pieces})
}

// subKindFor reports the SubstitutionKind a concrete node would fix a
// substitution to if inlined as one of its pieces.
func subKindFor(n *Node) SubstitutionKind {
	switch n.Kind {
	case KindObject:
		return SubKindObject
	case KindArray, KindAppend:
		return SubKindArray
	default:
		return SubKindScalar
	}
}

// MergeObjects returns a new object combining a and b field-by-field:
// fields unique to either side are kept, and fields present in both are
// combined with CombineDuplicateField so that nested objects keep
// merging recursively. Field order follows a's order first, then any
// new fields introduced by b, in b's order.
func MergeObjects(a, b *Node) *Node {
	out := NewObject()
	for _, k := range a.keys {
		out.SetField(k, DeepCopy(a.fields[k]))
	}
	for _, k := range b.keys {
		if existing, ok := out.Field(k); ok {
			out.SetField(k, CombineDuplicateField(existing, DeepCopy(b.fields[k])))
		} else {
			out.SetField(k, DeepCopy(b.fields[k]))
		}
	}
	return out
}

// MergeObjectsKeepExisting merges b into a with a's fields winning on
// conflict. This is the mirror image of MergeObjects's new-wins
// semantics, for the resolver's piece accumulation: the accumulator
// built from earlier pieces wins over a later non-interrupt piece on
// key conflicts.
func MergeObjectsKeepExisting(a, b *Node) *Node {
	out := NewObject()
	for _, k := range a.keys {
		out.SetField(k, DeepCopy(a.fields[k]))
	}
	for _, k := range b.keys {
		if existing, ok := out.Field(k); ok {
			if existing.Kind == KindObject && b.fields[k].Kind == KindObject {
				out.SetField(k, MergeObjectsKeepExisting(existing, DeepCopy(b.fields[k])))
			}
			continue
		}
		out.SetField(k, DeepCopy(b.fields[k]))
	}
	return out
}

// ConcatArrays implements array concatenation: adjacent array literals
// on the same value position append element-wise, left to right.
func ConcatArrays(a, b *Node) (*Node, error) {
	if a.Kind != KindArray || b.Kind != KindArray {
		return nil, &errors.ParseError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "cannot concatenate values of different kinds",
		}
	}
	items := make([]*Node, 0, len(a.Items)+len(b.Items))
	for _, it := range a.Items {
		items = append(items, DeepCopy(it))
	}
	for _, it := range b.Items {
		items = append(items, DeepCopy(it))
	}
	return NewArray(items), nil
}

// ConcatScalars implements scalar value concatenation: two adjacent
// scalar tokens on the same value position, separated by inline
// whitespace ws, concatenate to a single string scalar using each
// side's literal surface form.
func ConcatScalars(a, b *ScalarValue, ws string) *ScalarValue {
	return &ScalarValue{
		Kind: ScalarString,
		Str:  a.String() + ws + b.String(),
	}
}
