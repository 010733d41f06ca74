package delivery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// Directory lists subscribers. storage.Store satisfies this.
type Directory interface {
	ActiveSubscribers(ctx context.Context) ([]storage.Subscriber, error)
}

// CatalogSource provides the problem snapshot for a run.
type CatalogSource interface {
	Problems(ctx context.Context) ([]storage.Problem, error)
}

// History is the append-only delivery ledger.
type History interface {
	DeliveredProblemIDs(ctx context.Context, subscriberID string) (map[string]bool, error)
	AppendDelivery(ctx context.Context, rec storage.DeliveryRecord) error
}

// Options bound a run.
type Options struct {
	Workers         int           // pipeline fan-out; min 1
	RunTimeout      time.Duration // 0 means unbounded
	RandomSelection bool          // pick a random unseen candidate instead of the lowest id
	Seed            int64         // random selection only; 0 means time-based
}

// Coordinator owns one run at a time: it snapshots subscribers, catalog, and
// history, fans subscriber pipelines out over a bounded worker pool, isolates
// per-subscriber failures, and produces a RunReport.
type Coordinator struct {
	dir  Directory
	cat  CatalogSource
	hist History
	pipe *Pipeline
	opts Options
	log  logx.Logger
	now  func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewCoordinator(dir Directory, cat CatalogSource, hist History, pipe *Pipeline, opts Options, log logx.Logger) *Coordinator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Coordinator{
		dir:  dir,
		cat:  cat,
		hist: hist,
		pipe: pipe,
		opts: opts,
		log:  log,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// RunOnce executes one full run. It returns an error only on a systemic
// precondition failure (directory, catalog, or history unreachable) before
// any pipeline starts; individual subscriber failures are aggregated into
// the report and never abort the run.
func (c *Coordinator) RunOnce(ctx context.Context) (*RunReport, error) {
	report := newReport(c.now())

	if c.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
		defer cancel()
	}

	subs, err := c.dir.ActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })

	problems, err := c.cat.Problems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	// History snapshots are taken up front so a broken ledger aborts the run
	// before any message goes out.
	delivered := make([]map[string]bool, len(subs))
	for i, sub := range subs {
		delivered[i], err = c.hist.DeliveredProblemIDs(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}
	}

	c.log.Info("run started",
		logx.String("run_id", report.RunID),
		logx.Int("subscribers", len(subs)),
		logx.Int("problems", len(problems)),
	)

	report.Entries = make([]Entry, len(subs))
	workers := c.opts.Workers
	if workers > len(subs) && len(subs) > 0 {
		workers = len(subs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Entries[i] = c.process(ctx, subs[i], problems, delivered[i])
			}
		}()
	}
	for i := range subs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report.FinishedAt = c.now()
	success, failure, noContent, notAttempted := report.Counts()
	c.log.Info("run finished",
		logx.String("run_id", report.RunID),
		logx.Duration("took", report.Duration()),
		logx.Int("success", success),
		logx.Int("failure", failure),
		logx.Int("no_content", noContent),
		logx.Int("not_attempted", notAttempted),
	)
	return report, nil
}

// process handles one subscriber end to end. It never returns an error:
// every path becomes a report entry.
func (c *Coordinator) process(ctx context.Context, sub storage.Subscriber, problems []storage.Problem, delivered map[string]bool) Entry {
	if ctx.Err() != nil {
		return Entry{SubscriberID: sub.ID, Outcome: OutcomeNotAttempted, Reason: "run ended before processing"}
	}

	problem, ok := c.selectFor(problems, delivered, sub.Difficulty)
	if !ok {
		c.log.Info("no unseen problem for subscriber",
			logx.String("subscriber", sub.ID),
			logx.String("difficulty", string(sub.Difficulty)),
		)
		return Entry{SubscriberID: sub.ID, Outcome: OutcomeNoContent, Reason: "no unseen problem matches preferences"}
	}

	degraded, err := c.pipe.Execute(ctx, sub, problem)
	if err != nil {
		stage := FailedStage(err)
		c.log.Warn("pipeline failed",
			logx.String("subscriber", sub.ID),
			logx.String("problem", problem.ID),
			logx.String("stage", string(stage)),
			logx.Err(err),
		)
		c.record(sub.ID, problem.ID, storage.OutcomeFailure, err.Error())
		return Entry{
			SubscriberID: sub.ID,
			ProblemID:    problem.ID,
			Outcome:      OutcomeFailure,
			Stage:        stage,
			Reason:       err.Error(),
		}
	}

	c.record(sub.ID, problem.ID, storage.OutcomeSuccess, "")
	return Entry{SubscriberID: sub.ID, ProblemID: problem.ID, Outcome: OutcomeSuccess, Degraded: degraded}
}

func (c *Coordinator) selectFor(problems []storage.Problem, delivered map[string]bool, pref storage.Difficulty) (storage.Problem, bool) {
	cands := Candidates(problems, delivered, pref)
	if len(cands) == 0 {
		return storage.Problem{}, false
	}
	if c.opts.RandomSelection {
		c.rngMu.Lock()
		i := c.rng.Intn(len(cands))
		c.rngMu.Unlock()
		return cands[i], true
	}
	return cands[0], true
}

// record appends a delivery record. The write uses its own context so a
// cancelled run can still log its failures; a success record is only ever
// written after the send stage completed.
func (c *Coordinator) record(subscriberID, problemID string, outcome storage.Outcome, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.hist.AppendDelivery(ctx, storage.DeliveryRecord{
		SubscriberID: subscriberID,
		ProblemID:    problemID,
		At:           c.now().UTC(),
		Outcome:      outcome,
		Reason:       reason,
	})
	if err == nil {
		return
	}
	if errors.Is(err, storage.ErrDuplicateSuccess) {
		c.log.Error("duplicate success record rejected",
			logx.String("subscriber", subscriberID),
			logx.String("problem", problemID),
		)
		return
	}
	c.log.Error("delivery record write failed",
		logx.String("subscriber", subscriberID),
		logx.String("problem", problemID),
		logx.String("outcome", string(outcome)),
		logx.Err(err),
	)
}
