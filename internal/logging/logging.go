// Package logging builds the slog loggers handed to spansearch components.
//
// Components take a *slog.Logger as an option, fall back to Discard when
// none is given and scope it once with With(ComponentKey, name). Only the
// command front end calls New; library packages never touch the slog
// default logger.
//
// Span iterators and posting decoders do not log. Records come from query
// compilation, segment opening and search completion.
package logging

import (
	"io"
	"log/slog"
)

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Default returns logger, or a discarding logger if it is nil.
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// New returns a text logger writing to w. Records below level are dropped
// unless their component has an entry in overrides, which then sets the
// minimum for that component alone.
func New(w io.Writer, level slog.Level, overrides map[string]slog.Level) *slog.Logger {
	// The filter decides; the text handler must let everything through.
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewComponentFilterHandler(text, level)
	for component, l := range overrides {
		filter.SetLevel(component, l)
	}
	return slog.New(filter)
}
