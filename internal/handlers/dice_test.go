package handlers

import (
	"strconv"
	"strings"
	"testing"
)

func TestRollSingleDie(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := Roll("1d6")
		value, err := strconv.Atoi(strings.TrimPrefix(got, "Rolled: "))
		if err != nil {
			t.Fatalf("Roll(1d6) = %q", got)
		}
		if value < 1 || value > 6 {
			t.Fatalf("Roll(1d6) rolled %d", value)
		}
	}
}

func TestRollMultipleDice(t *testing.T) {
	got := Roll("3d1")
	if got != "Rolled: 1, 1, 1, total: 3" {
		t.Fatalf("Roll(3d1) = %q", got)
	}
}

func TestRollSortsResults(t *testing.T) {
	for i := 0; i < 20; i++ {
		got := Roll("4d20")
		body := strings.TrimPrefix(got, "Rolled: ")
		rollsPart, _, ok := strings.Cut(body, ", total: ")
		if !ok {
			t.Fatalf("Roll(4d20) = %q", got)
		}
		prev := 0
		for _, s := range strings.Split(rollsPart, ", ") {
			n, err := strconv.Atoi(s)
			if err != nil {
				t.Fatalf("Roll(4d20) = %q", got)
			}
			if n < prev {
				t.Fatalf("rolls not sorted: %q", got)
			}
			prev = n
		}
	}
}

func TestRollMalformed(t *testing.T) {
	for _, arg := range []string{"", "banana", "d6", "2d", "0d6", "2d0", "101d6", "2d1001", "-1d6"} {
		if got := Roll(arg); got != rollUsage {
			t.Errorf("Roll(%q) = %q, want usage", arg, got)
		}
	}
}
