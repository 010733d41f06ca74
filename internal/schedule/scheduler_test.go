package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leetdrip/internal/delivery"
	logx "leetdrip/pkg/logx"
)

type fakeRunner struct {
	mu      sync.Mutex
	runs    int
	block   chan struct{} // when set, RunOnce waits for a close
	started chan struct{} // signalled once per RunOnce entry
	err     error
}

func (r *fakeRunner) RunOnce(ctx context.Context) (*delivery.RunReport, error) {
	r.mu.Lock()
	r.runs++
	block := r.block
	started := r.started
	err := r.err
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &delivery.RunReport{RunID: "test-run"}, nil
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func newTestScheduler(t *testing.T, r Runner) *Scheduler {
	t.Helper()
	s, err := New(r, Config{Hour: 9, Minute: 0, Location: time.UTC}, logx.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestTriggerNow(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{}
	s := newTestScheduler(t, r)

	report, err := s.TriggerNow(context.Background())
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if report.RunID != "test-run" || r.count() != 1 {
		t.Fatalf("report %+v, runs %d", report, r.count())
	}
}

func TestTriggerNowNonOverlap(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestScheduler(t, r)

	done := make(chan error, 1)
	go func() {
		_, err := s.TriggerNow(context.Background())
		done <- err
	}()
	<-r.started // first run is now in flight

	if _, err := s.TriggerNow(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("concurrent trigger: got %v, want ErrRunInProgress", err)
	}
	if r.count() != 1 {
		t.Fatalf("second coordinator execution started: %d runs", r.count())
	}

	close(r.block)
	if err := <-done; err != nil {
		t.Fatalf("first trigger: %v", err)
	}

	// Guard released after the run finishes.
	if _, err := s.TriggerNow(context.Background()); err != nil {
		t.Fatalf("trigger after release: %v", err)
	}
}

func TestTriggerPropagatesSystemicError(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{err: errors.New("directory down")}
	s := newTestScheduler(t, r)
	if _, err := s.TriggerNow(context.Background()); err == nil {
		t.Fatal("want error")
	}
}

func TestOnReportHook(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{}
	s := newTestScheduler(t, r)

	var gotReport *delivery.RunReport
	var gotErr error
	s.OnReport(func(rep *delivery.RunReport, err error) {
		gotReport = rep
		gotErr = err
	})

	if _, err := s.TriggerNow(context.Background()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if gotReport == nil || gotReport.RunID != "test-run" || gotErr != nil {
		t.Fatalf("hook saw %+v, %v", gotReport, gotErr)
	}
}

func TestNextFire(t *testing.T) {
	t.Parallel()
	s, err := New(&fakeRunner{}, Config{Hour: 9, Minute: 30, Location: time.UTC}, logx.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	before := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	if got := s.NextFire(before); !got.Equal(time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("before fire time: %v", got)
	}

	// At or after the fire time, the next occurrence is tomorrow: missed
	// fires are never replayed.
	exact := time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
	if got := s.NextFire(exact); !got.Equal(time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("at fire time: %v", got)
	}
	after := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
	if got := s.NextFire(after); !got.Equal(time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("after fire time: %v", got)
	}
}

func TestNewRejectsBadTimes(t *testing.T) {
	t.Parallel()
	for _, c := range []Config{{Hour: 24}, {Hour: -1}, {Hour: 0, Minute: 60}} {
		if _, err := New(&fakeRunner{}, c, logx.Nop()); err == nil {
			t.Errorf("config %+v accepted", c)
		}
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := ParseHHMM("23:15")
	if err != nil || h != 23 || m != 15 {
		t.Fatalf("ParseHHMM(23:15) = %d, %d, %v", h, m, err)
	}
	for _, bad := range []string{"24:00", "12:60", "noon", "9", "09:15:30", ""} {
		if _, _, err := ParseHHMM(bad); err == nil {
			t.Errorf("ParseHHMM(%q) accepted", bad)
		}
	}
}
