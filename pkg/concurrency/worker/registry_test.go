package worker

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New("a")
	b := New("b")

	if err := r.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(b); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(a); err == nil {
		t.Error("duplicate Register should fail")
	}

	got, err := r.Get(a.ID)
	if err != nil || got != a {
		t.Errorf("Get(a) = %v, %v", got, err)
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}

	b.setStatus(Done)
	active := r.Active()
	if len(active) != 1 || active[0] != a {
		t.Errorf("Active = %v, want [a]", active)
	}

	r.Remove(a.ID)
	if _, err := r.Get(a.ID); err == nil {
		t.Error("Get after Remove should fail")
	}
}

func TestRegistryActiveOrder(t *testing.T) {
	r := NewRegistry()
	var ws []*Worker
	for range 5 {
		w := New("")
		ws = append(ws, w)
	}
	for i := len(ws) - 1; i >= 0; i-- {
		r.Register(ws[i])
	}

	active := r.Active()
	for i := range ws {
		if active[i] != ws[i] {
			t.Fatalf("Active not ordered by id: %v", active)
		}
	}
}

func TestRegistryAllIncludesDone(t *testing.T) {
	r := NewRegistry()
	a := New("a")
	b := New("b")
	r.Register(b)
	r.Register(a)
	b.setStatus(Done)

	all := r.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Errorf("All = %v, want [a b]", all)
	}
}

func TestRegistryPrune(t *testing.T) {
	r := NewRegistry()
	a := New("a")
	b := New("b")
	c := New("c")
	for _, w := range []*Worker{a, b, c} {
		if err := r.Register(w); err != nil {
			t.Fatal(err)
		}
	}
	a.setStatus(Done)
	c.setStatus(Done)

	if n := r.Prune(); n != 2 {
		t.Errorf("Prune removed %d, want 2", n)
	}
	if all := r.All(); len(all) != 1 || all[0] != b {
		t.Errorf("All after Prune = %v, want [b]", all)
	}
	if n := r.Prune(); n != 0 {
		t.Errorf("second Prune removed %d, want 0", n)
	}
}
