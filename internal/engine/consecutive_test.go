package engine

import (
	"reflect"
	"testing"

	"github.com/seatq/seatq/internal/models"
)

func TestSeatOrdinal(t *testing.T) {
	cases := []struct {
		id     string
		prefix string
		n      int
		ok     bool
	}{
		{"A12", "A", 12, true},
		{"B1", "B", 1, true},
		{"row3-07", "row3-", 7, true},
		{"balcony", "", 0, false},
	}
	for _, c := range cases {
		prefix, n, ok := seatOrdinal(c.id)
		if ok != c.ok || prefix != c.prefix || n != c.n {
			t.Errorf("seatOrdinal(%q) = %q,%d,%v, want %q,%d,%v",
				c.id, prefix, n, ok, c.prefix, c.n, c.ok)
		}
	}
}

func TestFindConsecutiveRunSkipsGaps(t *testing.T) {
	m := seats("A1", "A3", "A4", "A5")
	got := findConsecutiveRun(m, 3)
	want := []string{"A3", "A4", "A5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindConsecutiveRunNoRun(t *testing.T) {
	m := seats("A1", "A3", "A5")
	if got := findConsecutiveRun(m, 2); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestFindConsecutiveRunStaysInRow(t *testing.T) {
	// A9,A10 then B1: row boundary breaks the run even though IDs are
	// adjacent in sorted order.
	m := seats("A9", "A10", "B1")
	if got := findConsecutiveRun(m, 3); got != nil {
		t.Errorf("got %v, want nil", got)
	}
	want := []string{"A9", "A10"}
	if got := findConsecutiveRun(m, 2); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindConsecutiveRunIgnoresUnavailable(t *testing.T) {
	m := seats("C1", "C2", "C3")
	m["C2"].ReservedBy = "ana"
	if got := findConsecutiveRun(m, 2); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestFindConsecutiveRunIgnoresUnnumberedSeats(t *testing.T) {
	m := seats("D1", "D2", "stage")
	got := findConsecutiveRun(m, 2)
	want := []string{"D1", "D2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindConsecutiveRunTakesPrefixOfLongerRun(t *testing.T) {
	m := seats("E1", "E2", "E3", "E4")
	got := findConsecutiveRun(m, 2)
	want := []string{"E1", "E2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindConsecutiveRunZeroCount(t *testing.T) {
	var m map[string]*models.SeatRecord
	if got := findConsecutiveRun(m, 0); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
