// Package confcore is the top-level facade wiring the lexer,
// first-pass parser, include splicing, resolver and accessor into a
// single Parse/Config entry point. Every Parse carries a correlation
// ID attached to its log fields, and fatal external failures are
// wrapped with that same ID so a log line and a returned error can be
// matched up.
package confcore

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/strataconf/confcore/accessor"
	confcoreerrors "github.com/strataconf/confcore/errors"
	"github.com/strataconf/confcore/include"
	"github.com/strataconf/confcore/logging"
	"github.com/strataconf/confcore/parser"
	"github.com/strataconf/confcore/resolve"
	"github.com/strataconf/confcore/tree"
)

// Option configures a Parse call.
type Option func(*options)

type options struct {
	baseDir  string
	includer parser.Includer
	env      resolve.Env
	logger   logging.Logger
}

// WithBaseDir sets the directory relative-file includes resolve
// against. Defaults to the current working directory.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithIncluder overrides the default include.SourceReader, e.g. to
// stub out include resolution in a test.
func WithIncluder(includer parser.Includer) Option {
	return func(o *options) { o.includer = includer }
}

// WithEnv overrides the default OS-environment collaborator used for
// substitution fallback.
func WithEnv(env resolve.Env) Option {
	return func(o *options) { o.env = env }
}

// WithLogger attaches a logging.Logger; defaults to a no-op logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Config is a fully parsed and resolved document: the resolved tree
// plus every diagnostic accumulated while getting there. Resolution is
// attempted in full even when the document is invalid, so Invalid and
// Errors let a caller decide how to treat a partially-usable result.
type Config struct {
	root *tree.Node
	errs []error
	acc  *accessor.Accessor
}

// Parse runs the full pipeline (lex -> first-pass parse -> include
// splicing -> resolve) over src and returns the resulting Config.
// Check Invalid()/Errors() for diagnostics accumulated along the way.
// It only returns a non-nil error (and then a nil *Config) for a fatal
// external failure: a required include that could not be read and
// aborted the parse. In every other case the *Config is non-nil.
func Parse(ctx context.Context, src string, opts ...Option) (*Config, error) {
	o := &options{env: resolve.OSEnv{}, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	if o.baseDir == "" {
		o.baseDir = "."
	}
	if o.includer == nil {
		o.includer = include.NewSourceReader(o.baseDir).WithContext(ctx)
	}

	parseID := uuid.NewString()
	log := o.logger.Named("confcore").WithFields(logging.StringField("parse_id", parseID))

	log.Debug("parsing document", logging.IntField("source_len", int64(len(src))))
	result := parser.Parse(src, o.includer, o.baseDir)
	if hasRequiredIncludeFailure(result.Errs) {
		return nil, oops.
			Code(string(confcoreerrors.ReasonRequiredIncludeFailed)).
			With("parse_id", parseID).
			Wrapf(confcoreerrors.NewMultiError(result.Errs), "required include failed")
	}

	resolved, resolveErrs := resolve.Resolve(result.Root, result.Stack, o.env)
	allErrs := append(append([]error(nil), result.Errs...), resolveErrs...)
	if len(resolveErrs) > 0 {
		log.Warn("resolution produced diagnostics", logging.IntField("count", int64(len(resolveErrs))))
	}

	return &Config{
		root: resolved,
		errs: allErrs,
		acc:  accessor.New(resolved),
	}, nil
}

func hasRequiredIncludeFailure(errs []error) bool {
	for _, err := range errs {
		var pe *confcoreerrors.ParseError
		if ok := asParseError(err, &pe); ok && pe.ReasonCode == confcoreerrors.ReasonRequiredIncludeFailed {
			return true
		}
	}
	return false
}

func asParseError(err error, target **confcoreerrors.ParseError) bool {
	if pe, ok := err.(*confcoreerrors.ParseError); ok {
		*target = pe
		return true
	}
	return false
}

// Invalid reports whether any diagnostic was accumulated during
// parsing or resolution.
func (c *Config) Invalid() bool {
	return len(c.errs) > 0
}

// Errors returns every diagnostic accumulated across the whole
// pipeline, in the order encountered.
func (c *Config) Errors() []error {
	return c.errs
}

// Root returns the fully resolved tree.
func (c *Config) Root() *tree.Node {
	return c.root
}

// Get returns the node addressed by path, or a not-found error.
func (c *Config) Get(path string) (*tree.Node, error) {
	return c.acc.Get(path)
}

// GetAsString, GetAsBool, GetAsInt and GetAsDouble read the value at
// path coerced to the named type.
func (c *Config) GetAsString(path string) (string, error)  { return c.acc.GetAsString(path) }
func (c *Config) GetAsBool(path string) (bool, error)      { return c.acc.GetAsBool(path) }
func (c *Config) GetAsInt(path string) (int64, error)      { return c.acc.GetAsInt(path) }
func (c *Config) GetAsDouble(path string) (float64, error) { return c.acc.GetAsDouble(path) }

// GetSubtree returns a new opaque sub-configuration rooted at path.
func (c *Config) GetSubtree(path string) (*Config, error) {
	n, err := c.acc.Get(path)
	if err != nil {
		return nil, err
	}
	return &Config{root: n, acc: accessor.New(n)}, nil
}

// Exists reports whether path addresses a value in the resolved tree.
func (c *Config) Exists(path string) bool {
	return c.acc.Exists(path)
}

// PreviewYAML renders the resolved tree as YAML. It exists purely so a
// developer can eyeball a resolved document; it is not a wire format
// any component round-trips through.
func (c *Config) PreviewYAML() (string, error) {
	data, err := yaml.Marshal(toPlain(c.root))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toPlain(n *tree.Node) interface{} {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case tree.KindObject:
		out := make(map[string]interface{}, len(n.Keys()))
		for _, k := range n.Keys() {
			child, _ := n.Field(k)
			out[k] = toPlain(child)
		}
		return out
	case tree.KindArray:
		out := make([]interface{}, len(n.Items))
		for i, item := range n.Items {
			out[i] = toPlain(item)
		}
		return out
	case tree.KindScalar:
		switch n.Scalar.Kind {
		case tree.ScalarInt:
			return n.Scalar.Int
		case tree.ScalarFloat:
			return n.Scalar.Float
		case tree.ScalarBool:
			return n.Scalar.Bool
		case tree.ScalarNull:
			return nil
		default:
			return n.Scalar.Str
		}
	default:
		return nil
	}
}
