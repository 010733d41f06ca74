// Package health probes the run's collaborators without mutating the
// delivery ledger.
package health

import (
	"context"
	"fmt"
	"time"

	"leetdrip/internal/llm"
	"leetdrip/internal/mail"
	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// Result of one probe.
type Result struct {
	Name string
	OK   bool
	Info string
	Err  error
}

// Options select which probes run. The generator probe costs one tiny
// completion; the sender probe delivers a real test message and only runs
// when a recipient is given.
type Options struct {
	Store         storage.Store
	Generator     llm.Client   // nil fails the generator probe
	Sender        *mail.Sender // used only when TestRecipient is set
	TestRecipient string
	Timeout       time.Duration
}

// Run executes all configured probes and returns one result per collaborator.
// It never writes a DeliveryRecord.
func Run(ctx context.Context, opts Options, log logx.Logger) []Result {
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var results []Result
	probe := func(name string, fn func(ctx context.Context) (string, error)) {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		info, err := fn(pctx)
		r := Result{Name: name, OK: err == nil, Info: info, Err: err}
		if err != nil {
			log.Warn("health probe failed", logx.String("probe", name), logx.Err(err))
		} else {
			log.Info("health probe ok", logx.String("probe", name), logx.String("info", info))
		}
		results = append(results, r)
	}

	probe("directory", func(ctx context.Context) (string, error) {
		subs, err := opts.Store.ActiveSubscribers(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d active subscribers", len(subs)), nil
	})

	probe("catalog", func(ctx context.Context) (string, error) {
		n, err := opts.Store.CountProblems(ctx)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", fmt.Errorf("catalog is empty; run init-data first")
		}
		return fmt.Sprintf("%d problems", n), nil
	})

	probe("history", func(ctx context.Context) (string, error) {
		// A read against a nonexistent subscriber exercises the ledger
		// without touching it.
		ids, err := opts.Store.DeliveredProblemIDs(ctx, "health-probe")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("readable (%d records for probe id)", len(ids)), nil
	})

	probe("generator", func(ctx context.Context) (string, error) {
		if opts.Generator == nil {
			return "", fmt.Errorf("no generator configured (llm.api_key missing)")
		}
		resp, err := opts.Generator.Generate(ctx, []llm.Message{
			{Role: llm.RoleUser, Content: "Respond with the single word OK."},
		})
		if err != nil {
			return "", err
		}
		if resp.Content == "" {
			return "", fmt.Errorf("empty generation response")
		}
		return "model " + resp.Model, nil
	})

	if opts.Sender != nil && opts.TestRecipient != "" {
		probe("sender", func(ctx context.Context) (string, error) {
			if err := opts.Sender.SendTest(ctx, opts.TestRecipient); err != nil {
				return "", err
			}
			return "test message sent to " + opts.TestRecipient, nil
		})
	}

	return results
}

// AllOK reports whether every probe passed.
func AllOK(results []Result) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}
