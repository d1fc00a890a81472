package cmap

import (
	"sort"
	"testing"

	"github.com/yndnr/syncx-go/pkg/host"
)

func TestAll(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 50; i++ {
		_ = m.Set(i, i*i)
	}
	seen := make(map[int]int)
	for k, v := range m.All() {
		seen[k] = v
	}
	if len(seen) != 50 {
		t.Fatalf("All() yielded %d keys, want 50", len(seen))
	}
	for k, v := range seen {
		if v != k*k {
			t.Errorf("All() yielded %d=%d, want %d", k, v, k*k)
		}
	}
}

func TestAll_MutationDuringIteration(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		_ = m.Set(i, i)
	}
	// The loop body may write to the map without deadlocking.
	for k := range m.Keys() {
		_ = m.Delete(k)
		_ = m.Set(k+1000, k)
	}
	if m.Len() != 100 {
		t.Errorf("Len() = %d, want 100", m.Len())
	}
}

func TestRange_EarlyStop(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 10; i++ {
		_ = m.Set(i, i)
	}
	count := 0
	m.Range(func(int, int) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("Range visited %d entries, want 3", count)
	}
}

func TestAll_LendsReferences(t *testing.T) {
	m := NewHostMap[host.Object]()
	boxes := []*host.Box{host.NewBox(1), host.NewBox(2), host.NewBox(3)}
	for i, b := range boxes {
		_ = m.Set(host.Int(i), b)
	}
	for range m.All() {
		break
	}
	for range m.All() {
	}
	for i, b := range boxes {
		if b.Refs() != 2 {
			t.Errorf("box %d refs = %d after iteration, want 2", i, b.Refs())
		}
	}
}

func TestStateRestore(t *testing.T) {
	m := New[string, int]()
	_ = m.Set("a", 1)
	_ = m.Set("b", 2)
	_ = m.Set("c", 3)

	state := m.State()
	if len(state) != 3 {
		t.Fatalf("State() has %d entries, want 3", len(state))
	}

	r := New[string, int]()
	_ = r.Set("stale", 0)
	if err := r.Restore(state); err != nil {
		t.Fatalf("Restore() = %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		want, _, _ := m.Get(k)
		if got, ok, _ := r.Get(k); !ok || got != want {
			t.Errorf("restored %s = (%d, %v), want %d", k, got, ok, want)
		}
	}
	if ok, _ := r.Has("stale"); ok {
		t.Error("Restore() kept an entry absent from the state")
	}
}

func TestRestore_LastWriteWins(t *testing.T) {
	m := New[string, int]()
	err := m.Restore([]Entry[string, int]{{"k", 1}, {"j", 5}, {"k", 2}})
	if err != nil {
		t.Fatal(err)
	}
	if v, _, _ := m.Get("k"); v != 2 {
		t.Errorf("Get(k) = %d, want 2", v)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestClone(t *testing.T) {
	m := New[int, string](WithShardCount(8))
	_ = m.Set(1, "x")
	c := m.Clone()
	_ = m.Set(2, "y")

	if c.ShardCount() != 8 {
		t.Errorf("clone shard count = %d, want 8", c.ShardCount())
	}
	if c.Len() != 1 {
		t.Errorf("clone Len() = %d, want 1", c.Len())
	}
	keys := make([]int, 0)
	for k := range c.Keys() {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) != 1 || keys[0] != 1 {
		t.Errorf("clone keys = %v, want [1]", keys)
	}
}
