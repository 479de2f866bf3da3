package confcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/confcore"
)

func Test_Parse_resolves_simple_reference(t *testing.T) {
	cfg, err := confcore.Parse(context.Background(), "a = 2\nb = ${a}")
	require.NoError(t, err)
	require.False(t, cfg.Invalid(), cfg.Errors())

	v, err := cfg.GetAsInt("b")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func Test_Parse_env_fallback(t *testing.T) {
	t.Setenv("CONFCORE_TEST_VALUE", "from-env")
	cfg, err := confcore.Parse(context.Background(), `a = ${CONFCORE_TEST_VALUE}`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid())

	v, err := cfg.GetAsString("a")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func Test_Parse_optional_elision_leaves_empty_root(t *testing.T) {
	// a = ${?nonexistent.path} -> empty root object.
	cfg, err := confcore.Parse(context.Background(), `a = ${?nonexistent.path}`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid())
	assert.False(t, cfg.Exists("a"))
}

func Test_Parse_cycle_marks_config_invalid(t *testing.T) {
	cfg, err := confcore.Parse(context.Background(), "a = ${b}\nb = ${a}")
	require.NoError(t, err)
	assert.True(t, cfg.Invalid())
}

func Test_Config_GetSubtree(t *testing.T) {
	cfg, err := confcore.Parse(context.Background(), `server { port = 8080, host = "localhost" }`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid())

	sub, err := cfg.GetSubtree("server")
	require.NoError(t, err)
	port, err := sub.GetAsInt("port")
	require.NoError(t, err)
	assert.EqualValues(t, 8080, port)
}

func Test_Config_PreviewYAML(t *testing.T) {
	cfg, err := confcore.Parse(context.Background(), `a = 1`)
	require.NoError(t, err)
	out, err := cfg.PreviewYAML()
	require.NoError(t, err)
	assert.Contains(t, out, "a: 1")
}

func Test_Parse_object_extension(t *testing.T) {
	// foo = ${base} { a { b = 1 }, c = [${foo.a.b}] } -> foo.c[0] == 1
	cfg, err := confcore.Parse(context.Background(), `base {}
foo = ${base} { a { b = 1 }, c = [${foo.a.b}] }`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid(), cfg.Errors())

	v, err := cfg.GetAsInt("foo.c.0")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func Test_Parse_deterministic_resolution(t *testing.T) {
	// Identical input and environment produce a byte-identical
	// resolved tree on repeated runs.
	src := `a = 2 before
b = ${a} ${c} word
c = after
d = {x = 1}
d = {y = 2}
e = [1] [${?gone}] [3]`
	first, err := confcore.Parse(context.Background(), src)
	require.NoError(t, err)
	require.False(t, first.Invalid(), first.Errors())
	second, err := confcore.Parse(context.Background(), src)
	require.NoError(t, err)

	firstYAML, err := first.PreviewYAML()
	require.NoError(t, err)
	secondYAML, err := second.PreviewYAML()
	require.NoError(t, err)
	assert.Equal(t, firstYAML, secondYAML)
}

func Test_Parse_whitespace_preserved_across_substitution(t *testing.T) {
	// "${a} ${c} word" keeps its spacing through resolution.
	cfg, err := confcore.Parse(context.Background(), `a = 2 before
b = ${a} ${c} word
c = after`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid(), cfg.Errors())

	v, err := cfg.GetAsString("b")
	require.NoError(t, err)
	assert.Equal(t, "2 before after word", v)
}

func Test_Parse_object_merge(t *testing.T) {
	// bar = {foo:42, baz:${bar.foo}}; bar = {foo:43} -> {bar:{foo:43, baz:43}}
	cfg, err := confcore.Parse(context.Background(), `bar = {foo:42, baz:${bar.foo}}
bar = {foo:43}`)
	require.NoError(t, err)
	require.False(t, cfg.Invalid(), cfg.Errors())

	foo, err := cfg.GetAsInt("bar.foo")
	require.NoError(t, err)
	assert.EqualValues(t, 43, foo)

	baz, err := cfg.GetAsInt("bar.baz")
	require.NoError(t, err)
	assert.EqualValues(t, 43, baz)
}
