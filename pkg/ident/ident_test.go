package ident

import "testing"

func TestNewIsUnique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if id == Zero {
			t.Fatal("New returned the zero ID")
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestShort(t *testing.T) {
	id := ID("b2a197f6-d61f-44dc-b9e1-a2d2d9a1da35")
	if got := id.Short(); got != "b2a197f6" {
		t.Errorf("Short() = %q, want %q", got, "b2a197f6")
	}
	if got := ID("abc").Short(); got != "abc" {
		t.Errorf("Short() on short id = %q, want %q", got, "abc")
	}
}
