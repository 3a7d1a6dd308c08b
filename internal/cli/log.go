// Package cli implements the deskgeom command-line interface.
//
// The CLI is built with cobra. Commands load a scene TOML, solve it through a
// [pipeline.Runner] backed by the configured cache and dock store, and print
// the outcome with lipgloss styling.
//
// # Commands
//
//   - solve: extract surfaces, re-dock accessories, place the monitor and
//     frame the camera, optionally writing the solved scene back
//   - validate: report placement and mount issues, exiting non-zero on any
//   - project: cast a ray onto a named surface
//   - mount: generate and verify the monitor mount
//   - dock, undock, docks, tune: manage persisted dock offsets
//   - graph: render the scene diagram with graphviz
//   - serve: run the HTTP API
//   - props, config, cache, completion: housekeeping
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so the pipeline logs with the same handler.
//
// [pipeline.Runner]: github.com/sticky3d/deskgeom/pkg/pipeline.Runner
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w with centisecond timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs how long a command step took.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startWatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded to
// the millisecond.
func (w stopwatch) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(w.start).Round(time.Millisecond))
	w.logger.Info(msg, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext falls back to log.Default when ctx carries no logger,
// so commands run outside RootCommand still log.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
