package engine

import (
	"sort"
	"strconv"

	"github.com/seatq/seatq/internal/models"
)

// seatOrdinal extracts the trailing digit run of a seat ID as its position
// within a row ("A12" -> "A", 12). Returns ok=false when the ID has no
// trailing digits.
func seatOrdinal(id string) (prefix string, n int, ok bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return "", 0, false
	}
	return id[:i], n, true
}

// findConsecutiveRun returns count available seats forming a contiguous run:
// same row prefix, ordinals increasing by exactly one. Seats whose IDs carry
// no ordinal cannot participate in a run. Returns nil when no such run exists.
func findConsecutiveRun(seatMap map[string]*models.SeatRecord, count int) []string {
	if count <= 0 {
		return nil
	}

	type slot struct {
		id     string
		prefix string
		n      int
	}
	var avail []slot
	for id, rec := range seatMap {
		if rec.DeriveStatus() != models.SeatAvailable {
			continue
		}
		prefix, n, ok := seatOrdinal(id)
		if !ok {
			continue
		}
		avail = append(avail, slot{id: id, prefix: prefix, n: n})
	}

	sort.Slice(avail, func(i, j int) bool {
		if avail[i].prefix != avail[j].prefix {
			return avail[i].prefix < avail[j].prefix
		}
		return avail[i].n < avail[j].n
	})

	runStart := 0
	for i := 1; i <= len(avail); i++ {
		contiguous := i < len(avail) &&
			avail[i].prefix == avail[i-1].prefix &&
			avail[i].n == avail[i-1].n+1
		if !contiguous {
			if i-runStart >= count {
				run := make([]string, 0, count)
				for _, s := range avail[runStart : runStart+count] {
					run = append(run, s.id)
				}
				return run
			}
			runStart = i
		}
	}
	return nil
}
