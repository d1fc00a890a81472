package cmap

import (
	"errors"
	"sort"
	"testing"

	"github.com/yndnr/syncx-go/pkg/host"
)

func TestSet_Basic(t *testing.T) {
	s := NewSet[string]()
	_ = s.Add("a")
	_ = s.Add("b")
	_ = s.Add("a")

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if ok, _ := s.Contains("a"); !ok {
		t.Error("Contains(a) = false")
	}
	if err := s.Discard("zzz"); err != nil {
		t.Errorf("Discard(missing) = %v, want nil", err)
	}
	if err := s.Remove("zzz"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrKeyNotFound", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Errorf("Remove(a) = %v", err)
	}
	if ok, _ := s.Contains("a"); ok {
		t.Error("Contains(a) after Remove = true")
	}
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
}

func TestSet_CopyIsIndependent(t *testing.T) {
	s := NewSet[int]()
	_ = s.Add(1)
	c := s.Copy()
	_ = s.Add(2)
	_ = c.Add(3)

	var got []int
	for k := range c.All() {
		got = append(got, k)
	}
	sort.Ints(got)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("copy members = %v, want [1 3]", got)
	}
}

func TestSet_StateRestore(t *testing.T) {
	s := NewHostSet()
	_ = s.Add(host.Str("x"))
	_ = s.Add(host.Int(2))

	r := NewHostSet()
	if err := r.Restore(append(s.State(), host.Str("x"))); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Errorf("restored Len() = %d, want 2", r.Len())
	}
	if ok, _ := r.Contains(host.Float(2)); !ok {
		t.Error("restored set lacks 2")
	}
	if err := r.Add(host.Unhashable{}); !errors.Is(err, host.ErrUnhashable) {
		t.Errorf("Add(unhashable) = %v, want ErrUnhashable", err)
	}
}
