package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct {
	Group string
	ID    int
}

func (k testKey) Less(o testKey) bool {
	if k.Group != o.Group {
		return k.Group < o.Group
	}
	return k.ID < o.ID
}

type testValue struct {
	Name string
}

func (v testValue) Equal(o testValue) bool {
	return v.Name == o.Name
}

func TestDiff(t *testing.T) {
	stored := map[testKey]testValue{
		{"a", 1}: {"same"},
		{"a", 2}: {"old"},
		{"b", 1}: {"gone"},
	}
	remote := map[testKey]testValue{
		{"a", 1}: {"same"},
		{"a", 2}: {"new"},
		{"c", 9}: {"fresh"},
	}

	delta := Diff(stored, remote)

	assert.Equal(t, []Entry[testKey, testValue]{{Key: testKey{"c", 9}, Value: testValue{"fresh"}}}, delta.Added)
	assert.Equal(t, []Change[testKey, testValue]{{Key: testKey{"a", 2}, Stored: testValue{"old"}, Remote: testValue{"new"}}}, delta.Updated)
	assert.Equal(t, []Entry[testKey, testValue]{{Key: testKey{"b", 1}, Value: testValue{"gone"}}}, delta.Removed)
	assert.Equal(t, Counts{Added: 1, Updated: 1, Removed: 1}, delta.Counts())
	assert.False(t, delta.IsEmpty())
}

func TestDiff_Empty(t *testing.T) {
	same := map[testKey]testValue{{"a", 1}: {"x"}}

	assert.True(t, Diff(same, same).IsEmpty())
	assert.True(t, Diff[testKey, testValue](nil, nil).IsEmpty())
}

func TestDiff_OneSided(t *testing.T) {
	m := map[testKey]testValue{{"a", 1}: {"x"}, {"a", 2}: {"y"}}

	added := Diff(nil, m)
	assert.Len(t, added.Added, 2)
	assert.Empty(t, added.Removed)

	removed := Diff(m, nil)
	assert.Len(t, removed.Removed, 2)
	assert.Empty(t, removed.Added)
}

func TestDiff_DeterministicOrder(t *testing.T) {
	remote := make(map[testKey]testValue)
	for i := 50; i > 0; i-- {
		remote[testKey{fmt.Sprintf("g%d", i%3), i}] = testValue{"v"}
	}

	first := Diff(nil, remote)
	for run := 0; run < 20; run++ {
		assert.Equal(t, first, Diff(nil, remote))
	}

	for i := 1; i < len(first.Added); i++ {
		assert.True(t, first.Added[i-1].Key.Less(first.Added[i].Key))
	}
}
