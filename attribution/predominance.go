package attribution

import "github.com/warp/productivity-engine/generic"

// =============================================================================
// PREDOMINANCE - The value a worker held for most of a window
// =============================================================================
//
// Region and overall reports put each worker in exactly one bucket. The
// bucket is the value held for the most days inside the window, not the
// current one, so a report for last quarter does not change when a worker
// moves region today.

// Predominant returns the value whose periods cover the most days of window.
// Ties go to the value whose first in-window period starts earliest. ok is
// false when no period touches the window.
func Predominant(periods []AttributePeriod, window generic.Period) (value string, ok bool) {
	type tally struct {
		days       int
		firstStart generic.TimePoint
	}

	tallies := make(map[string]*tally)
	var order []string

	for _, p := range periods {
		overlap, in := p.Period.Intersect(window)
		if !in {
			continue
		}
		t, seen := tallies[p.Value]
		if !seen {
			t = &tally{firstStart: overlap.Start}
			tallies[p.Value] = t
			order = append(order, p.Value)
		}
		if overlap.Start.Before(t.firstStart) {
			t.firstStart = overlap.Start
		}
		t.days += overlap.Days()
	}

	var best string
	for _, v := range order {
		t := tallies[v]
		if !ok {
			best, ok = v, true
			continue
		}
		b := tallies[best]
		if t.days > b.days || (t.days == b.days && t.firstStart.Before(b.firstStart)) {
			best = v
		}
	}
	return best, ok
}
