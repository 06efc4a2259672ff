package reconcile

import "slices"

// Diff compares stored and remote records keyed alike.
// It is pure: neither map is modified and no I/O happens.
func Diff[K Key[K], V Value[V]](stored, remote map[K]V) Delta[K, V] {
	var delta Delta[K, V]

	for _, key := range unionKeys(stored, remote) {
		s, inStored := stored[key]
		r, inRemote := remote[key]

		switch {
		case inRemote && !inStored:
			delta.Added = append(delta.Added, Entry[K, V]{Key: key, Value: r})
		case inStored && !inRemote:
			delta.Removed = append(delta.Removed, Entry[K, V]{Key: key, Value: s})
		case !s.Equal(r):
			delta.Updated = append(delta.Updated, Change[K, V]{Key: key, Stored: s, Remote: r})
		}
	}

	return delta
}

// unionKeys returns every key present in either map, sorted.
func unionKeys[K Key[K], V any](stored, remote map[K]V) []K {
	seen := make(map[K]struct{}, len(stored)+len(remote))
	keys := make([]K, 0, len(stored)+len(remote))
	for k := range stored {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range remote {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, compare[K])
	return keys
}

func compare[K Key[K]](a, b K) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
