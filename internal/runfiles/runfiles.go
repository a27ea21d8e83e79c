// Package runfiles owns the per-run output directory lifecycle: allocating
// run directories, writing artifacts into them, and keeping the "latest"
// pointer consistent.
package runfiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact names inside a run directory.
const (
	DiscoveredName    = "items.discovered.json"
	EnrichedName      = "items.enriched.json"
	FeedName          = "assistant_feed.json"
	SummaryName       = "summary.md"
	OptionsSanityName = "options.sanity.json"
	LinksSanityName   = "links.sanity.json"
)

// Pointers at the output root.
const (
	LatestName     = "latest"
	LastRunPointer = "last_run_dir.txt"
)

const runDirFormat = "20060102-150405"

// Allocate creates a fresh run directory under root, named from now with
// second resolution. A collision inside the same second gets a -2, -3, ...
// suffix instead of clobbering the earlier run. Creation failure is fatal
// to the invocation: nothing downstream has anywhere to write.
func Allocate(root string, now time.Time) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create run root %s: %w", root, err)
	}
	base := now.UTC().Format(runDirFormat)
	for n := 1; ; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		dir := filepath.Join(root, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create run dir %s: %w", dir, err)
		}
	}
}

// WriteJSON serializes v (indented) to path, creating parent directories.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return WriteText(path, string(b)+"\n")
}

// WriteText writes s to path, creating parent directories.
func WriteText(path, s string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteLastRun records the newest run directory in last_run_dir.txt.
func WriteLastRun(outRoot, runDir string) error {
	abs, err := filepath.Abs(runDir)
	if err != nil {
		abs = runDir
	}
	return WriteText(filepath.Join(outRoot, LastRunPointer), abs+"\n")
}

// ReadLastRun returns the path recorded by WriteLastRun.
func ReadLastRun(outRoot string) (string, error) {
	b, err := os.ReadFile(filepath.Join(outRoot, LastRunPointer))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ResolveLatest is the single accessor consumers use to reach the newest
// run. It follows the latest pointer whether it is a symlink or a real
// directory; nobody else should touch the filesystem entry directly.
func ResolveLatest(outRoot string) (string, error) {
	p := filepath.Join(outRoot, LatestName)
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolve latest pointer: %w", err)
	}
	return resolved, nil
}
