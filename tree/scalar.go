package tree

import "strconv"

// ScalarKind identifies which field of ScalarValue is populated.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarInt
	ScalarFloat
	ScalarBool
	ScalarNull
)

// ScalarValue is the tagged union of leaf value types. Quoted
// records whether the original surface form was a quoted or
// triple-quoted string literal: unquoted scalars participate in
// true/false/null/number reclassification at lex time, but a quoted
// string never does, even if its content happens to read "true".
type ScalarValue struct {
	Kind   ScalarKind
	Str    string
	Int    int64
	Float  float64
	Bool   bool
	Quoted bool
}

// String renders v the way it would be concatenated into a surrounding
// string: the literal surface form, not a debug representation.
func (v *ScalarValue) String() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case ScalarString:
		return v.Str
	case ScalarInt:
		return strconv.FormatInt(v.Int, 10)
	case ScalarFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ScalarBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ScalarNull:
		return "null"
	default:
		return ""
	}
}
