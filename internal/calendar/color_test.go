package calendar

import (
	"fmt"
	"testing"
)

func TestGroupColorIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := GroupColor([]string{"x", "y", "z"})
	b := GroupColor([]string{"z", "x", "y"})
	if a != b {
		t.Errorf("GroupColor depends on order: %d vs %d", a, b)
	}
	if a == InfoColor {
		t.Errorf("GroupColor assigned the informational color")
	}
}

func TestUngroupColorsDistinctAndStable(t *testing.T) {
	t.Parallel()

	var ids []string
	for i := 0; i < len(palette); i++ {
		ids = append(ids, fmt.Sprintf("event-%d", i))
	}
	first := UngroupColors(ids)
	if len(first) != len(ids) {
		t.Fatalf("got %d colors, want %d", len(first), len(ids))
	}
	seen := map[int]string{}
	for id, c := range first {
		if c == InfoColor {
			t.Errorf("%s got the informational color", id)
		}
		if other, dup := seen[c]; dup {
			t.Errorf("%s and %s share color %d", id, other, c)
		}
		seen[c] = id
	}

	reversed := make([]string, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}
	second := UngroupColors(reversed)
	for id, c := range first {
		if second[id] != c {
			t.Errorf("color of %s = %d on rerun, want %d", id, second[id], c)
		}
	}
}

func TestUngroupColorsSingleMatchesEventColor(t *testing.T) {
	t.Parallel()

	got := UngroupColors([]string{"abc"})
	if got["abc"] != EventColor("abc") {
		t.Errorf("UngroupColors single = %d, want %d", got["abc"], EventColor("abc"))
	}
}

func TestUngroupColorsMoreIDsThanPalette(t *testing.T) {
	t.Parallel()

	var ids []string
	for i := 0; i < 2*len(palette)+3; i++ {
		ids = append(ids, fmt.Sprintf("id-%02d", i))
	}
	got := UngroupColors(ids)
	if len(got) != len(ids) {
		t.Fatalf("got %d colors, want %d", len(got), len(ids))
	}
	for id, c := range got {
		if c == InfoColor || c < 1 || c > 11 {
			t.Errorf("%s got color %d", id, c)
		}
	}
}
