// Package logging wires zerolog to the console and the per-run log file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// RunLogName is the plain-text log written into each run directory.
const RunLogName = "runner.log"

// Console returns the process-level logger used before a run directory
// exists (bootstrap, daemon loop).
func Console() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Logger()
}

// NewRunLogger returns a logger that tees human-readable lines to console
// and <runDir>/runner.log, plus a close func for the file. If the file
// cannot be opened the run degrades to console-only logging; the run itself
// must never fail because of its log.
func NewRunLogger(runDir string, console io.Writer) (zerolog.Logger, func()) {
	if console == nil {
		console = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}

	f, err := os.OpenFile(filepath.Join(runDir, RunLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log := zerolog.New(cw).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("run log file unavailable; console only")
		return log, func() {}
	}

	fw := zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true}
	log := zerolog.New(zerolog.MultiLevelWriter(cw, fw)).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }
}
