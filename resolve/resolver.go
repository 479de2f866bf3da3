// Package resolve implements the second-pass resolver: it walks the
// unresolved tree the parser produced and replaces every Substitution
// and Append node with a concrete value, consulting the shared history
// stack and an Env collaborator for whatever the live tree alone can't
// answer.
package resolve

import (
	"strings"

	"github.com/strataconf/confcore/errors"
	"github.com/strataconf/confcore/stack"
	"github.com/strataconf/confcore/tree"
)

// Resolver carries the state shared across one top-level Resolve call.
type Resolver struct {
	hist *stack.Stack
	env  Env
	errs []error

	// inProgress tracks the absolute paths currently being chased
	// through a stack-entry value, keyed by pathKey, for cycle
	// detection.
	inProgress map[string]bool
}

// Resolve runs the resolver over root using hist as the assignment
// history and env as the environment-variable collaborator (pass
// OSEnv{} for the default process-environment behavior). It returns the
// resolved tree — nil if root itself elided entirely, which only
// happens for a root that is itself a wholly-optional, wholly-absent
// substitution — and every error accumulated along the way; resolution
// is always attempted in full, even after an error, so that a caller
// gets complete diagnostic coverage in one pass.
func Resolve(root *tree.Node, hist *stack.Stack, env Env) (*tree.Node, []error) {
	r := &Resolver{hist: hist, env: env, inProgress: make(map[string]bool)}
	resolved, _ := r.resolveNode(root, nil)
	return resolved, r.errs
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

// resolveNode resolves n in place and reports whether its parent should
// keep it: false only for a Substitution/Append that elided to nothing.
func (r *Resolver) resolveNode(n *tree.Node, containingPath []string) (*tree.Node, bool) {
	if n == nil {
		return nil, true
	}
	switch n.Kind {
	case tree.KindObject:
		for _, key := range append([]string(nil), n.Keys()...) {
			child, _ := n.Field(key)
			childPath := append(append([]string(nil), containingPath...), key)
			resolved, keep := r.resolveNode(child, childPath)
			if !keep {
				n.DeleteField(key)
				continue
			}
			n.SetField(key, resolved)
		}
		return n, true
	case tree.KindArray:
		items := make([]*tree.Node, 0, len(n.Items))
		for i, item := range n.Items {
			childPath := append(append([]string(nil), containingPath...), tree.IndexSegment(i))
			resolved, keep := r.resolveNode(item, childPath)
			if !keep {
				continue
			}
			items = append(items, resolved)
		}
		n.ReplaceItems(items)
		return n, true
	case tree.KindScalar:
		return n, true
	case tree.KindSubstitution:
		return r.resolveSubstitution(n, containingPath)
	case tree.KindAppend:
		return r.resolveAppend(n, containingPath)
	default:
		return n, true
	}
}

// resolveSubstitution runs the piece-by-piece accumulator loop for a
// single substitution node.
func (r *Resolver) resolveSubstitution(n *tree.Node, containingPath []string) (*tree.Node, bool) {
	var acc *tree.Node

	for _, piece := range n.Substitution.Pieces {
		var r2 *tree.Node
		var ok bool

		switch {
		case piece.Inline != nil:
			var keep bool
			r2, keep = r.resolveNode(tree.DeepCopy(piece.Inline), containingPath)
			if !keep {
				continue
			}
			ok = true
		case !piece.IsRef:
			r2 = tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarString, Str: piece.Literal})
			ok = true
		default:
			r2, ok = r.resolveReference(piece, containingPath)
			if ok && r2.Kind == tree.KindScalar && piece.TrailingWS != "" {
				r2 = tree.NewScalar(&tree.ScalarValue{
					Kind: tree.ScalarString,
					Str:  r2.Scalar.String() + piece.TrailingWS,
				})
			}
		}

		if !ok {
			if piece.Optional {
				continue
			}
			r.errs = append(r.errs, &errors.ResolutionError{
				ReasonCode: errors.ReasonUnresolvedReference,
				Message:    "unresolved reference to " + strings.Join(piece.Path, "."),
				Path:       piece.Path,
			})
			break
		}

		acc = r.combine(acc, r2, piece.Interrupt)
	}

	if acc == nil {
		return nil, false
	}
	return acc, true
}

// resolveReference chases a single path-reference piece:
// prefix++Path is tried before bare Path, both before the environment
// fallback, with the self-reference window applied to each candidate
// independently. No separate "optional pieces retry the stack strictly
// before the counter" pass is needed: for a self-reference the main
// search is already bounded to strictly-before-counter, and for any
// other reference the unbounded search covers that window as a subset,
// so such a retry could never find anything the main search didn't
// already rule out.
func (r *Resolver) resolveReference(piece tree.Piece, containingPath []string) (*tree.Node, bool) {
	var candidates [][]string
	if len(piece.IncludePrefix) > 0 {
		candidates = append(candidates, append(append([]string(nil), piece.IncludePrefix...), piece.Path...))
	}
	candidates = append(candidates, piece.Path)

	for _, target := range candidates {
		if v, ok := r.searchStack(target, containingPath, piece.StackCounter); ok {
			return v, true
		}
	}

	if v, ok := r.env.Lookup(piece.Path); ok {
		return tree.NewScalar(&tree.ScalarValue{Kind: tree.ScalarString, Str: v}), true
	}

	return nil, false
}

// searchStack looks up target in the shared history stack: a
// self-reference (target lies inside containingPath, or equals it)
// only searches entries strictly before the piece's stack counter —
// "the prior value" — while any other reference searches the whole
// stack as it stands now, most recent assignment winning.
func (r *Resolver) searchStack(target, containingPath []string, counter int) (*tree.Node, bool) {
	upTo := r.hist.Len()
	if tree.PathHasPrefix(target, containingPath) {
		upTo = counter
	}
	value, ok := r.hist.LastValueForPath(target, upTo)
	if !ok {
		return nil, false
	}
	return r.resolveStackValue(value, target)
}

// resolveStackValue returns a concrete copy of a value found on the
// stack, recursively resolving it first if it — or any container
// member beneath it — is itself still unresolved, with cycle
// detection: re-entering a path already being chased breaks the cycle
// and reports it, keeping whatever the caller's accumulator already
// holds.
func (r *Resolver) resolveStackValue(v *tree.Node, path []string) (*tree.Node, bool) {
	if !v.IsUnresolved() {
		return tree.DeepCopy(v), true
	}

	key := pathKey(path)
	if r.inProgress[key] {
		r.errs = append(r.errs, &errors.ResolutionError{
			ReasonCode: errors.ReasonCycleDetected,
			Message:    "cycle detected resolving " + strings.Join(path, "."),
			Path:       path,
		})
		return nil, false
	}
	r.inProgress[key] = true
	defer delete(r.inProgress, key)

	return r.resolveNode(tree.DeepCopy(v), path)
}

// combine folds the next resolved piece into the accumulator. A
// non-interrupt combination merges same-kind values (object merge with
// the accumulator winning conflicts — the mirror image of the parser's
// new-wins duplicate-key table, array concatenation, scalar token
// append); a kind mismatch between two non-interrupt pieces is a
// genuine error. An interrupt piece instead applies exactly the same
// combination CombineDuplicateField uses for a fresh duplicate-key
// assignment — which is also where an interrupt's ability to
// transition the accumulator's kind (object-to-object merge with the
// new piece winning, or an outright kind change for array/scalar)
// comes from; "replace" for an interrupt means this same table, not a
// blind overwrite, which is what keeps pre-interrupt object
// contributions from being lost when a later duplicate key re-merges.
func (r *Resolver) combine(acc, next *tree.Node, interrupt bool) *tree.Node {
	if acc == nil {
		return next
	}
	if interrupt {
		return tree.CombineDuplicateField(acc, next)
	}
	switch {
	case acc.Kind == tree.KindObject && next.Kind == tree.KindObject:
		return tree.MergeObjectsKeepExisting(acc, next)
	case acc.Kind == tree.KindArray && next.Kind == tree.KindArray:
		merged, err := tree.ConcatArrays(acc, next)
		if err != nil {
			r.errs = append(r.errs, err)
			return acc
		}
		return merged
	case acc.Kind == tree.KindScalar && next.Kind == tree.KindScalar:
		return tree.NewScalar(tree.ConcatScalars(acc.Scalar, next.Scalar, ""))
	default:
		r.errs = append(r.errs, &errors.ResolutionError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "cannot combine substitution pieces of different kinds",
		})
		return acc
	}
}

// resolveAppend implements "path += value": it resolves the right-hand
// array, then concatenates it onto whatever array currently sits at
// the same path in the stack's history. A self-reference that resolves
// to something other than an array (never assigned before, or assigned
// as a non-array) is treated the same way an absent optional reference
// is: the append contributes only its own new value.
func (r *Resolver) resolveAppend(n *tree.Node, containingPath []string) (*tree.Node, bool) {
	op := n.Append

	newVal, keep := r.resolveNode(tree.DeepCopy(op.Value), containingPath)
	if !keep {
		newVal = tree.NewArray(nil)
	}
	if newVal.Kind != tree.KindArray {
		r.errs = append(r.errs, &errors.ResolutionError{
			ReasonCode: errors.ReasonPlusEqualsNonArray,
			Message:    "'+=' right-hand side must resolve to an array",
			Path:       op.Path,
		})
		return newVal, true
	}

	selfRef := tree.Piece{
		IsRef:         true,
		Path:          op.Path,
		Optional:      true,
		StackCounter:  op.StackCounter,
		IncludePrefix: op.IncludePrefix,
	}
	old, ok := r.resolveReference(selfRef, containingPath)
	if !ok || old.Kind != tree.KindArray {
		return newVal, true
	}

	merged, err := tree.ConcatArrays(old, newVal)
	if err != nil {
		r.errs = append(r.errs, err)
		return newVal, true
	}
	return merged, true
}
