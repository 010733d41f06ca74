package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned for lookups of unknown identities.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSuccess is returned when a second success record would be
	// written for the same (subscriber, problem) pair. One success per pair is
	// the no-repeat guarantee; callers treat this as a hard bug, not a retry.
	ErrDuplicateSuccess = errors.New("success record already exists for this subscriber/problem pair")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": in-process store, contents lost on exit (dev/tests)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Difficulty is a problem difficulty or, on a subscriber, a preference.
// "any" is valid only as a preference.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAny    Difficulty = "any"
)

// ParseDifficulty normalizes user/config input.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	case DifficultyAny, "":
		return DifficultyAny, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Matches reports whether a problem with difficulty d satisfies preference p.
func (p Difficulty) Matches(d Difficulty) bool {
	return p == DifficultyAny || p == d
}

// Outcome of one delivery attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Subscriber is one registered recipient. The identity doubles as the
// transport address (an email address, or "tg:<chat-id>" for Telegram).
type Subscriber struct {
	ID         string
	Language   string
	Difficulty Difficulty
	Active     bool
	CreatedAt  time.Time
}

// Example is one worked example shown in the problem statement.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// TestCase is one structured test case attached to a problem.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Problem is one catalog entry. Immutable once imported.
type Problem struct {
	ID          string
	Title       string
	Description string
	Difficulty  Difficulty
	Tags        []string
	Constraints string
	Examples    []Example
	Hints       []string
	TestCases   []TestCase
	CreatedAt   time.Time
}

// DeliveryRecord is one append-only ledger entry for a delivery attempt.
type DeliveryRecord struct {
	SubscriberID string
	ProblemID    string
	At           time.Time
	Outcome      Outcome
	Reason       string
}
