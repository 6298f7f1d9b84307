package util

import (
	"sort"
	"testing"
)

// --- map and pointer helpers ---

func TestKeys(t *testing.T) {
	turns := map[string]int{"rec-1": 4, "rec-2": 2, "rec-3": 7}
	keys := Keys(turns)
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", keys)
	}
	sort.Strings(keys)
	want := []string{"rec-1", "rec-2", "rec-3"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
	if got := Keys(map[string]int{}); len(got) != 0 {
		t.Errorf("expected no keys for an empty map, got %v", got)
	}
}

func TestPtr(t *testing.T) {
	p := Ptr(10)
	if p == nil || *p != 10 {
		t.Fatalf("Ptr(10) = %v", p)
	}
	*p = 25
	if *Ptr("alice") != "alice" {
		t.Error("Ptr should copy the value")
	}
}

// --- coalesce ---

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "vbdiar"); got != "vbdiar" {
		t.Errorf("expected the fallback, got %q", got)
	}
	if got := Coalesce("custom", "vbdiar"); got != "custom" {
		t.Errorf("expected the set value, got %q", got)
	}
	if got := Coalesce(0, 0, 4); got != 4 {
		t.Errorf("expected the first non-zero value, got %d", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("expected zero when nothing is set, got %d", got)
	}
}
