// Package reconcile computes the difference between two keyed sets of records.
//
// Diff builds the union of keys across the stored and remote maps, classifies every key as added
// (remote only), removed (stored only) or updated (present on both sides and not Equal), and
// returns each group sorted by key. Keys provide their own order through Less, which lets tuple
// keys such as (serie, event, category) sort field by field.
//
// The package never touches storage. Callers decide what a removal means (for instance, event
// series are never deleted) and apply the delta themselves.
//
// # Usage
//
//	delta := reconcile.Diff(storedCategories, remoteCategories)
//	for _, e := range delta.Added {
//	    create(e.Key, e.Value)
//	}
package reconcile
