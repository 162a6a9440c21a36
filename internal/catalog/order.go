package catalog

import (
	"errors"
	"math"
	"sort"
	"strconv"
)

// TrailingNumber extracts the last contiguous run of digits from a session
// id: "upload10" -> 10, "sweep_7b" -> 7. Ids without any digit run return
// -1 so they order after every numbered id. This is a documented constraint
// of the engine's id scheme, not a general sorting algorithm.
func TrailingNumber(id string) int64 {
	end := -1
	for i := len(id) - 1; i >= 0; i-- {
		c := id[i]
		if c >= '0' && c <= '9' {
			if end < 0 {
				end = i + 1
			}
			continue
		}
		if end >= 0 {
			return parseRun(id[i+1 : end])
		}
	}
	if end >= 0 {
		return parseRun(id[:end])
	}
	return -1
}

func parseRun(run string) int64 {
	n, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		// A digit run can only fail to parse by overflowing; treat an
		// absurdly long run as newest rather than dropping it to the end.
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt64
		}
		return -1
	}
	return n
}

// SortSessions orders sessions newest-first by trailing number. The sort is
// stable: ids with equal extracted numbers keep their original relative
// order, which is the only defined tie-break.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return TrailingNumber(sessions[i].ID) > TrailingNumber(sessions[j].ID)
	})
}
