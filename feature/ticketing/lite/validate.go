package lite

import (
	"fmt"
)

// AssertionError reports data that breaks an internal invariant: a provider returned a shape the
// client did not anticipate, or a client has a defect. It is never silently dropped.
type AssertionError struct {
	Provider string
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Provider == "" {
		return "assertion failed: " + e.Message
	}
	return fmt.Sprintf("%s: assertion failed: %s", e.Provider, e.Message)
}

// Assertf builds an AssertionError.
func Assertf(provider, format string, args ...any) error {
	return &AssertionError{Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the wrapper is self-consistent: ids are set and unique, and every sales fact
// references one of the wrapper's events and categories.
func (w EventSerieWrapper) Validate() error {
	if w.Serie.InternalID == "" {
		return Assertf("", "series %q has no internal id", w.Serie.Name)
	}

	events := make(map[string]struct{}, len(w.Events))
	for _, e := range w.Events {
		if e.InternalID == "" {
			return Assertf("", "series %s has an event without internal id", w.Serie.InternalID)
		}
		if _, dup := events[e.InternalID]; dup {
			return Assertf("", "series %s has duplicate event %s", w.Serie.InternalID, e.InternalID)
		}
		events[e.InternalID] = struct{}{}
	}

	categories := make(map[string]struct{}, len(w.Categories))
	for _, c := range w.Categories {
		if c.InternalID == "" {
			return Assertf("", "series %s has a category without internal id", w.Serie.InternalID)
		}
		if _, dup := categories[c.InternalID]; dup {
			return Assertf("", "series %s has duplicate category %s", w.Serie.InternalID, c.InternalID)
		}
		if c.Price.IsNegative() {
			return Assertf("", "category %s of series %s has a negative price", c.InternalID, w.Serie.InternalID)
		}
		categories[c.InternalID] = struct{}{}
	}

	sales := make(map[[2]string]struct{}, len(w.Sales))
	for _, s := range w.Sales {
		if _, ok := events[s.EventInternalID]; !ok {
			return Assertf("", "sold tickets of series %s reference unknown event %s", w.Serie.InternalID, s.EventInternalID)
		}
		if _, ok := categories[s.CategoryInternalID]; !ok {
			return Assertf("", "sold tickets of series %s reference unknown category %s", w.Serie.InternalID, s.CategoryInternalID)
		}
		if s.Total < 0 {
			return Assertf("", "sold tickets of series %s have a negative total", w.Serie.InternalID)
		}
		pair := [2]string{s.EventInternalID, s.CategoryInternalID}
		if _, dup := sales[pair]; dup {
			return Assertf("", "series %s has duplicate sales for event %s category %s", w.Serie.InternalID, s.EventInternalID, s.CategoryInternalID)
		}
		sales[pair] = struct{}{}
	}

	return nil
}
