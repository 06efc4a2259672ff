package reconcile

// Key identifies a record on both sides of a diff.
// Less gives keys a total order so results are deterministic.
type Key[K any] interface {
	comparable
	Less(other K) bool
}

// Value is a record compared field by field.
type Value[V any] interface {
	Equal(other V) bool
}

// Entry is a record present on one side only.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Change is a record present on both sides whose fields differ.
type Change[K, V any] struct {
	Key    K
	Stored V
	Remote V
}

// Delta is the difference between stored and remote state.
// Each slice is sorted by key.
type Delta[K, V any] struct {
	// Added holds remote records with no stored counterpart.
	Added []Entry[K, V]
	// Updated holds records on both sides that are not Equal.
	Updated []Change[K, V]
	// Removed holds stored records with no remote counterpart.
	Removed []Entry[K, V]
}

// Counts summarizes a Delta.
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// IsEmpty reports whether both sides already agree.
func (d Delta[K, V]) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Counts returns the size of each group.
func (d Delta[K, V]) Counts() Counts {
	return Counts{Added: len(d.Added), Updated: len(d.Updated), Removed: len(d.Removed)}
}
