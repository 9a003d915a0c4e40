package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tristendillon/doppelganger/core/cache"
	"github.com/tristendillon/doppelganger/core/config"
	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func testConfig(workers int, failFast bool) *config.Config {
	cfg := config.Default()
	cfg.Workers = workers
	cfg.FailFast = failFast
	return cfg
}

func newGenerator(cfg *config.Config, opts ...Option) *DoppelgangerGenerator {
	return NewDoppelgangerGenerator(cfg, append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

const greet = "def greet(name=\"world\"):\n    return f\"hi {name}\"\n"

func TestGenerateMirrorsTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "doppel")
	writeTree(t, src, map[string]string{
		"a/b/c.py":        greet,
		"a/notes.txt":     "not python",
		"top.py":          "\"\"\"doc\"\"\"\nX = 1\n",
		"pkg/__init__.py": "",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a", "d"), 0o755))

	report, err := newGenerator(testConfig(4, false)).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dst, "a"))
	assert.DirExists(t, filepath.Join(dst, "a", "b"))
	assert.DirExists(t, filepath.Join(dst, "a", "d"))
	assert.Equal(t, "def greet(name=\"world\"):\n    pass\n", readFile(t, filepath.Join(dst, "a", "b", "c.py")))
	assert.Equal(t, "X = 1\n", readFile(t, filepath.Join(dst, "top.py")))
	assert.Equal(t, "", readFile(t, filepath.Join(dst, "pkg", "__init__.py")))
	assert.NoFileExists(t, filepath.Join(dst, "a", "notes.txt"))

	assert.Len(t, report.Succeeded(), 3)
	assert.Empty(t, report.Failed())
	assert.Equal(t, []string{"a/notes.txt"}, report.Skipped())
	assert.Equal(t, []string{"a", "a/b", "a/d", "pkg"}, report.Directories())
	assert.False(t, report.HasFailures())
}

func TestGenerateIsIdempotent(t *testing.T) {
	src := t.TempDir()
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")
	writeTree(t, src, map[string]string{
		"mod.py": `"""Module."""
import os
CONST = {"a": 1,
         "b": 2}
@decorator
def f(a, *args, key="v", **kw) -> int:
    """Doc."""
    return a
class A(B, metaclass=M):
    x: int = 1
    def m(self):
        return self.x
    class Inner:
        async def run(self):
            await go()
`,
		"sub/other.py": greet,
	})

	gen := newGenerator(testConfig(2, false))
	_, err := gen.Generate(context.Background(), src, first)
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), first, second)
	require.NoError(t, err)

	for _, rel := range []string{"mod.py", "sub/other.py"} {
		assert.Equal(t,
			readFile(t, filepath.Join(first, filepath.FromSlash(rel))),
			readFile(t, filepath.Join(second, filepath.FromSlash(rel))),
			"stubbing %s twice changed it", rel)
	}
}

func TestGenerateOverwritesAndKeepsStaleFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"m.py": greet})
	writeTree(t, dst, map[string]string{"m.py": "old", "stale.py": "left alone"})

	_, err := newGenerator(testConfig(1, false)).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, "def greet(name=\"world\"):\n    pass\n", readFile(t, filepath.Join(dst, "m.py")))
	assert.Equal(t, "left alone", readFile(t, filepath.Join(dst, "stale.py")))
}

func TestGenerateSkipsParseErrors(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		"good.py": greet,
		"bad.py":  "def broken(:\n",
	})

	report, err := newGenerator(testConfig(2, false)).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Failed(), 1)
	failed := report.Failed()[0]
	assert.Equal(t, "bad.py", failed.Mapping.Rel)
	assert.Equal(t, models.KindParse, failed.Kind)
	assert.True(t, report.HasFailures())
	assert.NoFileExists(t, filepath.Join(dst, "bad.py"))
	assert.FileExists(t, filepath.Join(dst, "good.py"))
}

func TestGenerateFailFast(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"bad.py": "class (:\n"})

	report, err := newGenerator(testConfig(1, true)).Generate(context.Background(), src, dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrParse))
	require.NotNil(t, report)
	require.Len(t, report.Failed(), 1)
}

func TestGenerateMissingSourceRoot(t *testing.T) {
	dst := t.TempDir()
	_, err := newGenerator(testConfig(1, false)).Generate(context.Background(), filepath.Join(dst, "missing"), filepath.Join(dst, "out"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDirectoryAccess))
}

func TestGenerateDestinationIsAFile(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"m.py": greet})
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := newGenerator(testConfig(1, false)).Generate(context.Background(), src, blocker)
	require.Error(t, err)
	assert.Equal(t, models.KindDirectoryAccess, models.KindOf(err))
}

func TestGenerateRejectsOverlappingRoots(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"m.py": greet, "out/keep.py": "x = 1\n"})
	gen := newGenerator(testConfig(1, false))

	report, err := gen.Generate(context.Background(), src, filepath.Join(src, "out"))
	require.Error(t, err)
	assert.Equal(t, models.KindDirectoryAccess, models.KindOf(err))
	assert.Empty(t, report.Results())
	assert.Equal(t, "x = 1\n", readFile(t, filepath.Join(src, "out", "keep.py")))
	assert.NoFileExists(t, filepath.Join(src, "out", "m.py"))

	_, err = gen.Generate(context.Background(), filepath.Join(src, "out"), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDirectoryAccess))
	assert.Equal(t, greet, readFile(t, filepath.Join(src, "m.py")))
}

func TestGenerateMirrorsEnvironmentDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		"venv/lib.py":       greet,
		"node_modules/x.py": greet,
		"ok.py":             greet,
	})

	report, err := newGenerator(testConfig(2, false)).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Len(t, report.Succeeded(), 3)
	assert.FileExists(t, filepath.Join(dst, "venv", "lib.py"))
	assert.FileExists(t, filepath.Join(dst, "node_modules", "x.py"))
	assert.Empty(t, report.Skipped())
}

func TestGenerateReportsExcludedDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"venv/lib.py": greet, "ok.py": greet})
	cfg := testConfig(1, false)
	cfg.Exclude = []string{"venv"}

	report, err := newGenerator(cfg).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Len(t, report.Succeeded(), 1)
	assert.Equal(t, []string{"venv/"}, report.Skipped())
	assert.NoDirExists(t, filepath.Join(dst, "venv"))
}

// blockWrite makes the destination of rel a non-empty directory so writing
// the stub fails.
func blockWrite(t *testing.T, dst, rel string) {
	t.Helper()
	writeTree(t, dst, map[string]string{rel + "/occupied": "x"})
}

func TestGenerateSkipsWriteErrors(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"good.py": greet, "blocked.py": greet})
	blockWrite(t, dst, "blocked.py")

	report, err := newGenerator(testConfig(2, false)).Generate(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Failed(), 1)
	failed := report.Failed()[0]
	assert.Equal(t, "blocked.py", failed.Mapping.Rel)
	assert.Equal(t, models.KindWrite, failed.Kind)
	assert.True(t, errors.Is(failed.Err, models.ErrWrite))
	assert.Len(t, report.Succeeded(), 1)
	assert.FileExists(t, filepath.Join(dst, "good.py"))
}

func TestGenerateWriteErrorFailFast(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"blocked.py": greet})
	blockWrite(t, dst, "blocked.py")

	report, err := newGenerator(testConfig(1, true)).Generate(context.Background(), src, dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrWrite))
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, models.KindWrite, report.Failed()[0].Kind)
}

func TestGenerateReadErrors(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	src := t.TempDir()
	writeTree(t, src, map[string]string{"good.py": greet, "secret.py": greet})
	require.NoError(t, os.Chmod(filepath.Join(src, "secret.py"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(src, "secret.py"), 0o644) })

	report, err := newGenerator(testConfig(2, false)).Generate(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, models.KindRead, report.Failed()[0].Kind)
	assert.Len(t, report.Succeeded(), 1)

	_, err = newGenerator(testConfig(1, true)).Generate(context.Background(), src, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRead))
}

func TestGenerateCancelled(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.py": greet, "b.py": greet})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newGenerator(testConfig(2, false)).Generate(ctx, src, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateUsesCache(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"m.py": greet})
	outputCache := cache.NewOutputCache(nil, logger.Nop())
	gen := newGenerator(testConfig(1, false), WithCache(outputCache))

	report, err := gen.Generate(context.Background(), src, dst)
	require.NoError(t, err)
	assert.False(t, report.Results()[0].Cached)

	require.NoError(t, os.Remove(filepath.Join(dst, "m.py")))
	report, err = gen.Generate(context.Background(), src, dst)
	require.NoError(t, err)
	assert.True(t, report.Results()[0].Cached)
	assert.Equal(t, "def greet(name=\"world\"):\n    pass\n", readFile(t, filepath.Join(dst, "m.py")))

	metrics := outputCache.GetMetrics()
	assert.Equal(t, int64(1), metrics.Hits)
	assert.Equal(t, int64(1), metrics.Misses)
}

func TestStub(t *testing.T) {
	out, err := newGenerator(nil).Stub(context.Background(), "x.py", []byte(greet))
	require.NoError(t, err)
	assert.Equal(t, "def greet(name=\"world\"):\n    pass\n", string(out))
}
