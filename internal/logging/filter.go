package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ComponentKey is the attribute key used to scope loggers to a component.
const ComponentKey = "component"

// levelTable holds per-component level overrides. It is shared by every
// handler derived from the same ComponentFilterHandler.
type levelTable struct {
	mu     sync.RWMutex
	levels map[string]slog.Level
}

// ComponentFilterHandler filters records by a per-component minimum level.
//
// The component is taken from a "component" attribute, either attached with
// logger.With (pre-attrs) or passed on the record itself. Components without
// an override use the default level. Overrides can be changed at runtime and
// apply to all loggers derived from this handler. A logger scoped twice
// takes the innermost component.
type ComponentFilterHandler struct {
	next         slog.Handler
	defaultLevel slog.Level
	table        *levelTable
	component    string
}

// NewComponentFilterHandler wraps next with per-component level filtering.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next:         next,
		defaultLevel: defaultLevel,
		table:        &levelTable{levels: make(map[string]slog.Level)},
	}
}

// SetLevel overrides the minimum level for a component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.table.mu.Lock()
	h.table.levels[component] = level
	h.table.mu.Unlock()
}

// level returns the effective minimum level for a component.
func (h *ComponentFilterHandler) level(component string) slog.Level {
	h.table.mu.RLock()
	defer h.table.mu.RUnlock()
	if l, ok := h.table.levels[component]; ok {
		return l
	}
	return h.defaultLevel
}

// minLevel is the lowest level any component may currently log at.
func (h *ComponentFilterHandler) minLevel() slog.Level {
	h.table.mu.RLock()
	defer h.table.mu.RUnlock()
	lowest := h.defaultLevel
	for _, l := range h.table.levels {
		if l < lowest {
			lowest = l
		}
	}
	return lowest
}

func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.component != "" {
		if level < h.level(h.component) {
			return false
		}
	} else if level < h.minLevel() {
		return false
	}
	return h.next == nil || h.next.Enabled(ctx, level)
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == ComponentKey {
				component = a.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < h.level(component) {
		return nil
	}
	if h.next == nil {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	for _, a := range attrs {
		if a.Key == ComponentKey {
			c.component = a.Value.String()
		}
	}
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	c := *h
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}
