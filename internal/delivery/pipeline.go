package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"leetdrip/internal/llm"
	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// EmbellishPolicy decides what an embellish-stage failure does.
type EmbellishPolicy string

const (
	// EmbellishDegrade sends the un-embellished solution and flags the
	// entry as degraded.
	EmbellishDegrade EmbellishPolicy = "degrade"
	// EmbellishFail fails the pipeline.
	EmbellishFail EmbellishPolicy = "fail"
)

// Embellisher augments a solution with commentary.
type Embellisher interface {
	Embellish(sol llm.Solution) (llm.Solution, error)
}

// MessageSender delivers the composed message. mail.Sender satisfies this.
type MessageSender interface {
	SendDaily(ctx context.Context, sub storage.Subscriber, p storage.Problem, sol llm.Solution, degraded bool) error
}

// Pipeline drives one (problem, subscriber) pair through the ordered stages
// fetch, solve, embellish, send. Each stage either yields the next payload or
// a StageError naming the stage; there is no partial state and no internal
// retry.
type Pipeline struct {
	gen     llm.Client
	emb     Embellisher // nil disables the embellish stage
	sender  MessageSender
	policy  EmbellishPolicy
	limiter *rate.Limiter // shared across workers; nil means unlimited
	log     logx.Logger
}

func NewPipeline(gen llm.Client, emb Embellisher, sender MessageSender, policy EmbellishPolicy, limiter *rate.Limiter, log logx.Logger) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	if policy == "" {
		policy = EmbellishDegrade
	}
	return &Pipeline{gen: gen, emb: emb, sender: sender, policy: policy, limiter: limiter, log: log}
}

// Execute runs all stages for one subscriber. degraded reports that the
// message went out without embellishment. A non-nil error is always a
// *StageError; interruption mid-stage surfaces as a failure of that stage,
// never as a sent message.
func (p *Pipeline) Execute(ctx context.Context, sub storage.Subscriber, problem storage.Problem) (degraded bool, err error) {
	// Fetch: normalize the problem into the solve payload. Pure.
	msgs, err := p.fetch(problem, sub.Language)
	if err != nil {
		return false, &StageError{Stage: StageFetch, Err: err}
	}

	// Solve: one generation call, rate limited.
	sol, err := p.solve(ctx, msgs, sub.Language)
	if err != nil {
		return false, &StageError{Stage: StageSolve, Err: err}
	}

	// Embellish: non-fatal under the degrade policy.
	if p.emb != nil {
		embellished, embErr := p.emb.Embellish(sol)
		switch {
		case embErr == nil:
			sol = embellished
		case p.policy == EmbellishFail:
			return false, &StageError{Stage: StageEmbellish, Err: embErr}
		default:
			degraded = true
			p.log.Warn("embellish failed; sending plain solution",
				logx.String("subscriber", sub.ID),
				logx.String("problem", problem.ID),
				logx.Err(embErr),
			)
		}
	}

	// Send: fatal on failure, message not delivered.
	if err := p.sender.SendDaily(ctx, sub, problem, sol, degraded); err != nil {
		return degraded, &StageError{Stage: StageSend, Err: err}
	}
	return degraded, nil
}

func (p *Pipeline) fetch(problem storage.Problem, language string) ([]llm.Message, error) {
	if strings.TrimSpace(problem.Title) == "" || strings.TrimSpace(problem.Description) == "" {
		return nil, fmt.Errorf("problem %q has an empty statement", problem.ID)
	}
	return llm.SolvePrompt(problem, language), nil
}

func (p *Pipeline) solve(ctx context.Context, msgs []llm.Message, language string) (llm.Solution, error) {
	if p.gen == nil {
		return llm.Solution{}, errors.New("no generator configured")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return llm.Solution{}, err
		}
	}
	resp, err := p.gen.Generate(ctx, msgs)
	if err != nil {
		return llm.Solution{}, err
	}
	sol := llm.ParseSolution(resp.Content, language)
	sol.Model = resp.Model
	if !sol.Valid() {
		return llm.Solution{}, errors.New("generated response has no solution code")
	}
	return sol, nil
}
