package runfiles

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() zerolog.Logger {
	return zerolog.Nop()
}

func makeRun(t *testing.T, out, name string) string {
	t.Helper()
	run := filepath.Join(out, name)
	require.NoError(t, os.Mkdir(run, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(run, "items.discovered.json"), []byte("[]\n"), 0o644))
	return run
}

func readSanity(t *testing.T, run string) SanityRecord {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(run, LinksSanityName))
	require.NoError(t, err)
	var rec SanityRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	return rec
}

func TestUpdateLatestFreshPointer(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")

	require.NoError(t, UpdateLatest(out, run, testLog()))

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absRun, _ := filepath.EvalSymlinks(run)
	assert.Equal(t, absRun, resolved)

	rec := readSanity(t, run)
	assert.True(t, rec.PointerExists)
	assert.True(t, rec.SymlinkUsed)
	assert.True(t, rec.IsSymlink)
	assert.Equal(t, absRun, rec.ResolvesTo)
}

func TestUpdateLatestTracksNewestAcrossInvocations(t *testing.T) {
	out := t.TempDir()

	var last string
	for _, name := range []string{"20260314-090000", "20260314-090100", "20260314-090200"} {
		run := makeRun(t, out, name)
		require.NoError(t, UpdateLatest(out, run, testLog()))
		last = run
	}

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absLast, _ := filepath.EvalSymlinks(last)
	assert.Equal(t, absLast, resolved)
}

func TestUpdateLatestReplacesRealDirectory(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")

	// a fallback copy from an earlier run occupies the pointer path
	stale := filepath.Join(out, LatestName)
	require.NoError(t, os.MkdirAll(filepath.Join(stale, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "nested", "old.json"), []byte("{}"), 0o644))

	require.NoError(t, UpdateLatest(out, run, testLog()))

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absRun, _ := filepath.EvalSymlinks(run)
	assert.Equal(t, absRun, resolved)
}

func TestUpdateLatestHealsBrokenSymlink(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")

	require.NoError(t, os.Symlink(filepath.Join(out, "no-such-run"), filepath.Join(out, LatestName)))

	require.NoError(t, UpdateLatest(out, run, testLog()))

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absRun, _ := filepath.EvalSymlinks(run)
	assert.Equal(t, absRun, resolved)
}

func TestUpdateLatestHealsLoopingSymlink(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")

	// latest pointing at itself: EvalSymlinks on it errors with ELOOP
	pointer := filepath.Join(out, LatestName)
	require.NoError(t, os.Symlink(pointer, pointer))

	require.NoError(t, UpdateLatest(out, run, testLog()))

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absRun, _ := filepath.EvalSymlinks(run)
	assert.Equal(t, absRun, resolved)
}

func TestCopyAsLatestMirrorsRunContents(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")
	require.NoError(t, os.MkdirAll(filepath.Join(run, "exports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(run, "exports", "seen.json"), []byte(`["tt1"]`), 0o644))

	pointer := filepath.Join(out, LatestName)
	require.NoError(t, copyAsLatest(run, pointer))

	// pointer is a real directory, not a symlink
	fi, err := os.Lstat(pointer)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Zero(t, fi.Mode()&os.ModeSymlink)

	b, err := os.ReadFile(filepath.Join(pointer, "items.discovered.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))

	b, err = os.ReadFile(filepath.Join(pointer, "exports", "seen.json"))
	require.NoError(t, err)
	assert.Equal(t, `["tt1"]`, string(b))

	// no temp staging dir left behind
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestCopyAsLatestFailureIsFatal(t *testing.T) {
	out := t.TempDir()
	err := copyAsLatest(filepath.Join(out, "missing-run"), filepath.Join(out, LatestName))
	assert.Error(t, err)
}

func TestSanityRecordAfterCopyFallback(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")
	pointer := filepath.Join(out, LatestName)

	absRun, _ := filepath.EvalSymlinks(run)
	require.NoError(t, copyAsLatest(absRun, pointer))
	writeSanity(run, absRun, pointer, false)

	rec := readSanity(t, run)
	assert.True(t, rec.PointerExists)
	assert.False(t, rec.SymlinkUsed)
	assert.False(t, rec.IsSymlink)
	assert.Equal(t, time.Now().UTC().Year(), mustParseTime(t, rec.CheckedAt).Year())
}

func TestUpdateLatestFallsBackToCopyWhenSymlinksUnavailable(t *testing.T) {
	out := t.TempDir()
	run := makeRun(t, out, "20260314-090000")
	require.NoError(t, os.WriteFile(filepath.Join(run, "summary.md"), []byte("today\n"), 0o644))

	orig := symlink
	symlink = func(string, string) error { return errors.New("symlinks unsupported") }
	t.Cleanup(func() { symlink = orig })

	require.NoError(t, UpdateLatest(out, run, testLog()))

	// pointer is a real directory mirroring the run
	pointer := filepath.Join(out, LatestName)
	fi, err := os.Lstat(pointer)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Zero(t, fi.Mode()&os.ModeSymlink)

	b, err := os.ReadFile(filepath.Join(pointer, "summary.md"))
	require.NoError(t, err)
	assert.Equal(t, "today\n", string(b))

	resolved, err := ResolveLatest(out)
	require.NoError(t, err)
	absPointer, _ := filepath.EvalSymlinks(pointer)
	assert.Equal(t, absPointer, resolved)

	rec := readSanity(t, run)
	assert.True(t, rec.PointerExists)
	assert.False(t, rec.SymlinkUsed)
	assert.False(t, rec.IsSymlink)
}

func TestUpdateLatestCopyFallbackFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	run := makeRun(t, dir, "20260314-090000")

	// an output root whose parent is a regular file defeats the copy
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	outRoot := filepath.Join(blocked, "out")

	orig := symlink
	symlink = func(string, string) error { return errors.New("symlinks unsupported") }
	t.Cleanup(func() { symlink = orig })

	assert.Error(t, UpdateLatest(outRoot, run, testLog()))
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
