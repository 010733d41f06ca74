package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	logx "leetdrip/pkg/logx"
)

func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	mem, err := Open(Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	return map[string]Store{"sqlite": sq, "memory": mem}
}

func TestSubscriberRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			sub := Subscriber{
				ID:         "alice@example.com",
				Language:   "python",
				Difficulty: DifficultyMedium,
				Active:     true,
			}
			if err := st.UpsertSubscriber(ctx, sub); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			got, err := st.Subscriber(ctx, sub.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Language != "python" || got.Difficulty != DifficultyMedium || !got.Active {
				t.Fatalf("unexpected subscriber: %+v", got)
			}
			if got.CreatedAt.IsZero() {
				t.Fatal("created_at not set")
			}

			// Upsert updates preferences in place.
			sub.Language = "go"
			sub.Difficulty = DifficultyHard
			if err := st.UpsertSubscriber(ctx, sub); err != nil {
				t.Fatalf("re-upsert: %v", err)
			}
			got, err = st.Subscriber(ctx, sub.ID)
			if err != nil {
				t.Fatalf("get after update: %v", err)
			}
			if got.Language != "go" || got.Difficulty != DifficultyHard {
				t.Fatalf("preferences not updated: %+v", got)
			}

			if _, err := st.Subscriber(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestActiveSubscribersOrderedAndFiltered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, s := range []Subscriber{
				{ID: "carol@example.com", Language: "go", Difficulty: DifficultyAny, Active: true},
				{ID: "alice@example.com", Language: "python", Difficulty: DifficultyEasy, Active: true},
				{ID: "bob@example.com", Language: "java", Difficulty: DifficultyHard, Active: false},
			} {
				if err := st.UpsertSubscriber(ctx, s); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			active, err := st.ActiveSubscribers(ctx)
			if err != nil {
				t.Fatalf("active: %v", err)
			}
			if len(active) != 2 || active[0].ID != "alice@example.com" || active[1].ID != "carol@example.com" {
				t.Fatalf("unexpected active set: %+v", active)
			}

			if err := st.SetSubscriberActive(ctx, "bob@example.com", true); err != nil {
				t.Fatalf("reactivate: %v", err)
			}
			active, err = st.ActiveSubscribers(ctx)
			if err != nil {
				t.Fatalf("active: %v", err)
			}
			if len(active) != 3 {
				t.Fatalf("want 3 active, got %d", len(active))
			}

			if err := st.SetSubscriberActive(ctx, "nobody@example.com", false); !errors.Is(err, ErrNotFound) {
				t.Fatalf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPutProblemsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ps := []Problem{
				{
					ID:          "two-sum",
					Title:       "Two Sum",
					Description: "Given an array of integers...",
					Difficulty:  DifficultyEasy,
					Tags:        []string{"array", "hash-table"},
					Constraints: "2 <= nums.length <= 10^4",
					Examples:    []Example{{Input: "nums = [2,7,11,15], target = 9", Output: "[0,1]"}},
					Hints:       []string{"Try a hash map."},
					TestCases:   []TestCase{{Input: "[2,7,11,15], 9", Expected: "[0,1]"}},
				},
				{ID: "valid-parentheses", Title: "Valid Parentheses", Description: "Given a string s...", Difficulty: DifficultyEasy},
			}

			added, err := st.PutProblems(ctx, ps)
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if added != 2 {
				t.Fatalf("want 2 added, got %d", added)
			}

			// Re-import is a no-op for existing IDs.
			added, err = st.PutProblems(ctx, ps)
			if err != nil {
				t.Fatalf("re-put: %v", err)
			}
			if added != 0 {
				t.Fatalf("want 0 added on re-import, got %d", added)
			}

			got, err := st.Problem(ctx, "two-sum")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Title != "Two Sum" || len(got.Tags) != 2 || len(got.Examples) != 1 || len(got.TestCases) != 1 {
				t.Fatalf("payload lost on round trip: %+v", got)
			}
			if got.Examples[0].Output != "[0,1]" {
				t.Fatalf("example mangled: %+v", got.Examples[0])
			}

			all, err := st.Problems(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(all) != 2 || all[0].ID != "two-sum" || all[1].ID != "valid-parentheses" {
				t.Fatalf("unexpected catalog order: %+v", all)
			}

			n, err := st.CountProblems(ctx)
			if err != nil || n != 2 {
				t.Fatalf("count = %d, err = %v", n, err)
			}
		})
	}
}

func TestDeliveryLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()

			ok := DeliveryRecord{SubscriberID: "alice@example.com", ProblemID: "two-sum", At: now, Outcome: OutcomeSuccess}
			if err := st.AppendDelivery(ctx, ok); err != nil {
				t.Fatalf("append success: %v", err)
			}

			// Second success for the same pair is rejected.
			if err := st.AppendDelivery(ctx, ok); !errors.Is(err, ErrDuplicateSuccess) {
				t.Fatalf("want ErrDuplicateSuccess, got %v", err)
			}

			// Failures are unconstrained, even repeated ones.
			fail := DeliveryRecord{SubscriberID: "alice@example.com", ProblemID: "valid-parentheses", At: now, Outcome: OutcomeFailure, Reason: "send: smtp timeout"}
			for i := 0; i < 2; i++ {
				if err := st.AppendDelivery(ctx, fail); err != nil {
					t.Fatalf("append failure #%d: %v", i+1, err)
				}
			}

			// Same pair can still succeed after failures.
			fail.Outcome = OutcomeSuccess
			fail.Reason = ""
			if err := st.AppendDelivery(ctx, fail); err != nil {
				t.Fatalf("append success after failures: %v", err)
			}

			delivered, err := st.DeliveredProblemIDs(ctx, "alice@example.com")
			if err != nil {
				t.Fatalf("delivered: %v", err)
			}
			if len(delivered) != 2 || !delivered["two-sum"] || !delivered["valid-parentheses"] {
				t.Fatalf("unexpected delivered set: %v", delivered)
			}

			success, failure, err := st.DeliveryCounts(ctx, "alice@example.com")
			if err != nil {
				t.Fatalf("counts: %v", err)
			}
			if success != 2 || failure != 2 {
				t.Fatalf("counts = (%d, %d), want (2, 2)", success, failure)
			}

			other, err := st.DeliveredProblemIDs(ctx, "bob@example.com")
			if err != nil {
				t.Fatalf("delivered other: %v", err)
			}
			if len(other) != 0 {
				t.Fatalf("cross-subscriber leak: %v", other)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{" Medium ", DifficultyMedium, false},
		{"HARD", DifficultyHard, false},
		{"any", DifficultyAny, false},
		{"", DifficultyAny, false},
		{"impossible", "", true},
	}
	for _, tc := range cases {
		got, err := ParseDifficulty(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDifficulty(%q): want error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseDifficulty(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
