// Package logx centralizes logger construction, replacing the original
// crawler's utils.get_logger (one named logger per component: "FRONTIER",
// "CRAWLER", "Worker-N") with github.com/rs/zerolog sub-loggers tagged by a
// "component" field, written to stderr as the teacher's cmd/server.go does
// via log.SetOutput(os.Stderr).
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger for the crawl. Output goes to stderr in a
// human-readable console form; set ConsoleWriter aside for a production
// JSON sink by swapping the writer.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

// Named returns a sub-logger tagged with component, the Go analogue of
// get_logger(component) in the original crawler.
func Named(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
