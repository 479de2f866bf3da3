// Package include implements the external source-reading collaborator
// the parser's "include" directive needs: resolving a bare string
// literal, a file(...) locator or a url(...) locator into the raw
// source text of another confcore document.
package include

import (
	"context"

	"github.com/strataconf/confcore/parser"
)

// SourceReader implements parser.Includer, dispatching each include
// form to the matching collaborator. The heuristic form (a bare string
// literal with no file(...)/url(...) wrapper) is resolved as a file
// path, since that is by far the common case for a local configuration
// tree and keeps the heuristic's default predictable without a network
// round-trip.
//
// baseDir is fixed for the lifetime of a SourceReader and is not
// recomputed per nested include: every include, however deeply
// nested, resolves a relative file locator against the top-level
// document's own directory rather than its immediate parent's. This
// is a deliberate simplification — confcore documents are expected to
// live in one flat include tree rather than a directory hierarchy of
// independently-relocatable fragments.
type SourceReader struct {
	baseDir string
	files   *FileSourceReader
	urls    *URLSourceReader
	ctx     context.Context
}

// NewSourceReader returns a SourceReader rooted at baseDir, using the
// real OS filesystem and a default-configured HTTP client.
func NewSourceReader(baseDir string) *SourceReader {
	return &SourceReader{
		baseDir: baseDir,
		files:   NewFileSourceReader(),
		urls:    NewURLSourceReader(),
		ctx:     context.Background(),
	}
}

// WithContext returns a copy of the reader that uses ctx for any
// network include (url(...)) it performs.
func (r *SourceReader) WithContext(ctx context.Context) *SourceReader {
	cp := *r
	cp.ctx = ctx
	return &cp
}

// ReadInclude implements parser.Includer.
func (r *SourceReader) ReadInclude(kind parser.IncludeKind, locator string) (string, error) {
	switch kind {
	case parser.IncludeURL:
		return r.urls.Read(r.ctx, locator)
	case parser.IncludeFile, parser.IncludeHeuristic:
		return r.files.Read(r.baseDir, locator)
	default:
		return r.files.Read(r.baseDir, locator)
	}
}
