package runfiles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SanityRecord describes what the pointer update actually did. It is
// written into the run directory for post-hoc diagnosis only and never
// gates a subsequent run.
type SanityRecord struct {
	RunDir        string `json:"run_dir"`
	PointerExists bool   `json:"pointer_exists"`
	IsSymlink     bool   `json:"is_symlink"`
	ResolvesTo    string `json:"resolves_to,omitempty"`
	SymlinkUsed   bool   `json:"symlink_used"`
	CheckedAt     string `json:"checked_at"`
}

// symlink is a seam: tests swap it out to exercise the copy fallback on
// filesystems where real symlinks work fine.
var symlink = os.Symlink

// UpdateLatest repoints <outRoot>/latest at runDir.
//
// The pointer ends up as either a symlink that provably resolves to runDir
// or, when symlinks are unavailable or resolve wrong, a full copy of the
// run directory staged in a temp dir and renamed into place. Only the
// copy/rename fallback can fail the update; everything before it degrades.
func UpdateLatest(outRoot, runDir string, log zerolog.Logger) error {
	absRun, err := filepath.Abs(runDir)
	if err == nil {
		absRun, err = filepath.EvalSymlinks(absRun)
	}
	if err != nil {
		return fmt.Errorf("resolve run dir %s: %w", runDir, err)
	}

	pointer := filepath.Join(outRoot, LatestName)
	clearPointer(pointer, log)

	symlinked := false
	if err := symlink(absRun, pointer); err != nil {
		log.Warn().Err(err).Msg("latest: symlink not created")
	} else {
		resolved, rerr := filepath.EvalSymlinks(pointer)
		if rerr != nil || resolved != absRun {
			// Stale loop from a crashed run, or a filesystem that lies.
			log.Warn().Err(rerr).Str("resolved", resolved).Msg("latest: symlink invalid")
			_ = os.Remove(pointer)
		} else {
			symlinked = true
		}
	}

	var updateErr error
	if !symlinked {
		if updateErr = copyAsLatest(absRun, pointer); updateErr == nil {
			log.Info().Str("pointer", pointer).Msg("latest: full copy fallback")
		}
	} else {
		log.Info().Str("pointer", pointer).Str("target", absRun).Msg("latest: symlink updated")
	}

	writeSanity(runDir, absRun, pointer, symlinked)
	return updateErr
}

// clearPointer best-effort removes whatever sits at the pointer path.
// A stale entry that cannot be removed is renamed aside so the path is
// free for the new pointer.
func clearPointer(pointer string, log zerolog.Logger) {
	fi, err := os.Lstat(pointer)
	if err != nil {
		return // absent already
	}
	var rmErr error
	if fi.IsDir() {
		rmErr = os.RemoveAll(pointer)
	} else {
		rmErr = os.Remove(pointer)
	}
	if rmErr != nil {
		aside := fmt.Sprintf("%s.stale-%s", pointer, time.Now().UTC().Format(runDirFormat))
		if err := os.Rename(pointer, aside); err != nil {
			log.Warn().Err(err).Msg("latest: could not clear stale pointer")
		}
	}
}

// copyAsLatest copies src into a temp dir next to the pointer and renames
// it into place, so a crash mid-copy never leaves a half-written latest.
func copyAsLatest(src, pointer string) error {
	tmp := fmt.Sprintf("%s.tmp-%s", pointer, filepath.Base(src))
	_ = os.RemoveAll(tmp)
	if err := copyDir(src, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("copy run dir to %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, pointer); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("activate latest copy: %w", err)
	}
	return nil
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyDir(s, d); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(s, d); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// writeSanity inspects the pointer as it now stands and records the
// verdict. Failures here are swallowed: diagnostics never fail a run.
func writeSanity(runDir, absRun, pointer string, symlinked bool) {
	rec := SanityRecord{
		RunDir:      absRun,
		SymlinkUsed: symlinked,
		CheckedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if fi, err := os.Lstat(pointer); err == nil {
		rec.PointerExists = true
		rec.IsSymlink = fi.Mode()&os.ModeSymlink != 0
		if resolved, err := filepath.EvalSymlinks(pointer); err == nil {
			rec.ResolvesTo = resolved
		}
	}
	_ = WriteJSON(filepath.Join(runDir, LinksSanityName), rec)
}
