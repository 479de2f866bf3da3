// Package accessor implements the path-based read API exposed over a
// resolved tree: Get, the GetAs typed coercions, GetSubtree and
// Exists. Coercions fall back to parsing a textual scalar's surface
// form, so a value substituted in from the environment reads back the
// same way as one written as a typed literal.
package accessor

import (
	"strconv"
	"strings"

	"github.com/strataconf/confcore/errors"
	"github.com/strataconf/confcore/tree"
)

// Type identifies the coercion GetAs should apply to the value found at
// a path.
type Type int

const (
	TypeString Type = iota
	TypeBool
	TypeInt
	TypeDouble
)

// Accessor reads a fully resolved tree by dotted path. It is not safe
// to use before resolve.Resolve has run: a tree still containing
// substitutions will read back their placeholder values, not the
// values they resolve to.
type Accessor struct {
	root *tree.Node
}

// New wraps root for path-based reads.
func New(root *tree.Node) *Accessor {
	return &Accessor{root: root}
}

// Exists reports whether path addresses a value in the tree.
func (a *Accessor) Exists(path string) bool {
	_, ok := a.lookup(path)
	return ok
}

// Get returns the node addressed by path, or a not-found error.
func (a *Accessor) Get(path string) (*tree.Node, error) {
	n, ok := a.lookup(path)
	if !ok {
		return nil, notFound(path)
	}
	return n, nil
}

// GetSubtree returns a new Accessor rooted at path, so that repeated
// lookups beneath a common prefix can drop the shared prefix.
func (a *Accessor) GetSubtree(path string) (*Accessor, error) {
	n, err := a.Get(path)
	if err != nil {
		return nil, err
	}
	return New(n), nil
}

// GetAs reads the value at path and coerces it to typ.
func (a *Accessor) GetAs(path string, typ Type) (interface{}, error) {
	switch typ {
	case TypeString:
		return a.GetAsString(path)
	case TypeBool:
		return a.GetAsBool(path)
	case TypeInt:
		return a.GetAsInt(path)
	case TypeDouble:
		return a.GetAsDouble(path)
	default:
		return nil, &errors.ResolutionError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "unknown accessor type",
			Path:       segmentsOf(path),
		}
	}
}

// GetAsString coerces the value at path to its surface string form.
func (a *Accessor) GetAsString(path string) (string, error) {
	n, err := a.Get(path)
	if err != nil {
		return "", err
	}
	if n.Kind != tree.KindScalar {
		return "", kindMismatch(path, "scalar")
	}
	return n.Scalar.String(), nil
}

// GetAsBool coerces the value at path to a boolean: "true"/"yes"/"on"
// (case-insensitive) are true, "false"/"no"/"off" are false, anything
// else is an error.
func (a *Accessor) GetAsBool(path string) (bool, error) {
	n, err := a.Get(path)
	if err != nil {
		return false, err
	}
	if n.Kind != tree.KindScalar {
		return false, kindMismatch(path, "scalar")
	}
	if n.Scalar.Kind == tree.ScalarBool {
		return n.Scalar.Bool, nil
	}
	switch strings.ToLower(n.Scalar.String()) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	default:
		return false, &errors.ResolutionError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "value at " + path + " is not a recognised boolean",
			Path:       segmentsOf(path),
		}
	}
}

// GetAsInt coerces the value at path to an integer, parsing the
// surface form for a string scalar.
func (a *Accessor) GetAsInt(path string) (int64, error) {
	n, err := a.Get(path)
	if err != nil {
		return 0, err
	}
	if n.Kind != tree.KindScalar {
		return 0, kindMismatch(path, "scalar")
	}
	if n.Scalar.Kind == tree.ScalarInt {
		return n.Scalar.Int, nil
	}
	v, parseErr := strconv.ParseInt(strings.TrimSpace(n.Scalar.String()), 10, 64)
	if parseErr != nil {
		return 0, &errors.ResolutionError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "value at " + path + " is not an integer",
			Path:       segmentsOf(path),
		}
	}
	return v, nil
}

// GetAsDouble coerces the value at path to a float64, parsing the
// surface form for a string scalar.
func (a *Accessor) GetAsDouble(path string) (float64, error) {
	n, err := a.Get(path)
	if err != nil {
		return 0, err
	}
	if n.Kind != tree.KindScalar {
		return 0, kindMismatch(path, "scalar")
	}
	if n.Scalar.Kind == tree.ScalarFloat {
		return n.Scalar.Float, nil
	}
	if n.Scalar.Kind == tree.ScalarInt {
		return float64(n.Scalar.Int), nil
	}
	v, parseErr := strconv.ParseFloat(strings.TrimSpace(n.Scalar.String()), 64)
	if parseErr != nil {
		return 0, &errors.ResolutionError{
			ReasonCode: errors.ReasonKindMismatch,
			Message:    "value at " + path + " is not a double",
			Path:       segmentsOf(path),
		}
	}
	return v, nil
}

func (a *Accessor) lookup(path string) (*tree.Node, bool) {
	segments, err := tree.ParsePath(path)
	if err != nil {
		return nil, false
	}
	return a.root.GetPathValue(segments)
}

func segmentsOf(path string) []string {
	segments, err := tree.ParsePath(path)
	if err != nil {
		return nil
	}
	return segments
}

func notFound(path string) error {
	return &errors.ResolutionError{
		ReasonCode: errors.ReasonUnresolvedReference,
		Message:    "no value at path " + path,
		Path:       segmentsOf(path),
	}
}

func kindMismatch(path, want string) error {
	return &errors.ResolutionError{
		ReasonCode: errors.ReasonKindMismatch,
		Message:    "value at " + path + " is not a " + want,
		Path:       segmentsOf(path),
	}
}
