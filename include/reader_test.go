package include

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/confcore/parser"
)

func TestFileSourceReaderResolvesRelativeToBaseDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/conf/child.conf", []byte("x = 1"), 0o644))

	r := &FileSourceReader{Fs: fs}
	got, err := r.Read("/conf", "child.conf")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", got)
}

func TestFileSourceReaderAbsoluteLocatorIgnoresBaseDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/other.conf", []byte("y = 2"), 0o644))

	r := &FileSourceReader{Fs: fs}
	got, err := r.Read("/conf", "/etc/other.conf")
	require.NoError(t, err)
	assert.Equal(t, "y = 2", got)
}

func TestFileSourceReaderMissingFileIsNotFoundError(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &FileSourceReader{Fs: fs}
	_, err := r.Read("/conf", "missing.conf")
	require.Error(t, err)
}

func TestSourceReaderDispatchesHeuristicAndFileToFilesystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/conf/child.conf", []byte("x = 1"), 0o644))

	sr := NewSourceReader("/conf")
	sr.files = &FileSourceReader{Fs: fs}

	var _ parser.Includer = sr

	got, err := sr.ReadInclude(parser.IncludeHeuristic, "child.conf")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", got)

	got, err = sr.ReadInclude(parser.IncludeFile, "child.conf")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", got)
}
