package delivery

import (
	"sort"

	"leetdrip/internal/storage"
)

// Candidates returns the problems matching the difficulty preference that
// have no success record yet, sorted by id. Pure function of its arguments.
func Candidates(catalog []storage.Problem, delivered map[string]bool, pref storage.Difficulty) []storage.Problem {
	var out []storage.Problem
	for _, p := range catalog {
		if delivered[p.ID] {
			continue
		}
		if !pref.Matches(p.Difficulty) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SelectProblem picks the next problem for a subscriber: the unseen candidate
// with the lowest id. Deterministic for a given (catalog, history, preference)
// snapshot. The second return is false when every matching problem has
// already been delivered.
func SelectProblem(catalog []storage.Problem, delivered map[string]bool, pref storage.Difficulty) (storage.Problem, bool) {
	c := Candidates(catalog, delivered, pref)
	if len(c) == 0 {
		return storage.Problem{}, false
	}
	return c[0], true
}
