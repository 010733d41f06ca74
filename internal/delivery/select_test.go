package delivery

import (
	"testing"

	"leetdrip/internal/storage"
)

func catalogFixture() []storage.Problem {
	return []storage.Problem{
		{ID: "valid-parentheses", Title: "Valid Parentheses", Difficulty: storage.DifficultyEasy},
		{ID: "two-sum", Title: "Two Sum", Difficulty: storage.DifficultyEasy},
		{ID: "lru-cache", Title: "LRU Cache", Difficulty: storage.DifficultyMedium},
		{ID: "word-ladder", Title: "Word Ladder", Difficulty: storage.DifficultyHard},
	}
}

func TestSelectProblemLowestID(t *testing.T) {
	t.Parallel()
	p, ok := SelectProblem(catalogFixture(), nil, storage.DifficultyEasy)
	if !ok || p.ID != "two-sum" {
		t.Fatalf("got %q, %v; want two-sum", p.ID, ok)
	}
}

func TestSelectProblemDeterminism(t *testing.T) {
	t.Parallel()
	delivered := map[string]bool{"two-sum": true}
	first, ok := SelectProblem(catalogFixture(), delivered, storage.DifficultyAny)
	if !ok {
		t.Fatal("expected a candidate")
	}
	for i := 0; i < 10; i++ {
		again, ok := SelectProblem(catalogFixture(), delivered, storage.DifficultyAny)
		if !ok || again.ID != first.ID {
			t.Fatalf("iteration %d: got %q, want %q", i, again.ID, first.ID)
		}
	}
}

func TestSelectProblemHonorsDifficulty(t *testing.T) {
	t.Parallel()
	p, ok := SelectProblem(catalogFixture(), nil, storage.DifficultyHard)
	if !ok || p.ID != "word-ladder" {
		t.Fatalf("got %q, %v; want word-ladder", p.ID, ok)
	}

	// "any" matches everything; lowest id wins.
	p, ok = SelectProblem(catalogFixture(), nil, storage.DifficultyAny)
	if !ok || p.ID != "lru-cache" {
		t.Fatalf("got %q, %v; want lru-cache", p.ID, ok)
	}
}

func TestSelectProblemExcludesDelivered(t *testing.T) {
	t.Parallel()
	delivered := map[string]bool{"two-sum": true}
	p, ok := SelectProblem(catalogFixture(), delivered, storage.DifficultyEasy)
	if !ok || p.ID != "valid-parentheses" {
		t.Fatalf("got %q, %v; want valid-parentheses", p.ID, ok)
	}
}

func TestSelectProblemExhausted(t *testing.T) {
	t.Parallel()
	delivered := map[string]bool{"two-sum": true, "valid-parentheses": true}
	if _, ok := SelectProblem(catalogFixture(), delivered, storage.DifficultyEasy); ok {
		t.Fatal("expected no candidate for exhausted easy catalog")
	}
}

func TestCandidatesSorted(t *testing.T) {
	t.Parallel()
	c := Candidates(catalogFixture(), nil, storage.DifficultyAny)
	for i := 1; i < len(c); i++ {
		if c[i-1].ID >= c[i].ID {
			t.Fatalf("candidates not sorted: %q before %q", c[i-1].ID, c[i].ID)
		}
	}
}
