// Package mail delivers rendered problem messages via a pluggable provider:
// Gmail API, Telegram, or a mock that only logs.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leetdrip/internal/llm"
	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// Provider sends one message to one recipient. Implementations own their
// transport-level retry policy; callers attempt a send exactly once.
type Provider interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Config selects and configures a provider.
type Config struct {
	Provider        string // "gmail", "telegram", or "mock"
	From            string
	CredentialsJSON string // gmail
	TelegramToken   string // telegram
}

// NewProvider builds the configured provider.
func NewProvider(ctx context.Context, cfg Config, log logx.Logger) (Provider, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p {
	case "gmail":
		return newGmail(ctx, cfg, log)
	case "telegram":
		return newTelegram(cfg, log)
	case "", "mock":
		return NewMock(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", p)
	}
}

// Sender renders messages and hands them to the provider.
type Sender struct {
	provider Provider
	log      logx.Logger
	now      func() time.Time
}

func NewSender(provider Provider, log logx.Logger) *Sender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sender{provider: provider, log: log, now: time.Now}
}

// SendDaily sends the daily problem with its solution. degraded marks a
// message whose embellishment step was skipped.
func (s *Sender) SendDaily(ctx context.Context, sub storage.Subscriber, p storage.Problem, sol llm.Solution, degraded bool) error {
	data := dailyData{
		Recipient: displayName(sub.ID),
		Problem:   p,
		Solution:  sol,
		Date:      s.now().Format("2006-01-02"),
		Degraded:  degraded,
	}
	html, text, err := renderDaily(data)
	if err != nil {
		return fmt.Errorf("render daily message: %w", err)
	}
	subject := dailySubject(p, data.Date)

	s.log.Info("sending daily problem",
		logx.String("to", sub.ID),
		logx.String("problem", p.ID),
		logx.Bool("degraded", degraded),
	)
	return s.provider.Send(ctx, sub.ID, subject, html, text)
}

// SendWelcome confirms a new subscription.
func (s *Sender) SendWelcome(ctx context.Context, sub storage.Subscriber) error {
	html, text, err := renderWelcome(welcomeData{
		Recipient:  displayName(sub.ID),
		Language:   sub.Language,
		Difficulty: string(sub.Difficulty),
	})
	if err != nil {
		return fmt.Errorf("render welcome message: %w", err)
	}
	s.log.Info("sending welcome", logx.String("to", sub.ID))
	return s.provider.Send(ctx, sub.ID, "🎉 Welcome to Daily Coding Challenges!", html, text)
}

// SendGoodbye confirms an unsubscribe.
func (s *Sender) SendGoodbye(ctx context.Context, sub storage.Subscriber) error {
	html, text, err := renderGoodbye(welcomeData{Recipient: displayName(sub.ID)})
	if err != nil {
		return fmt.Errorf("render goodbye message: %w", err)
	}
	s.log.Info("sending goodbye", logx.String("to", sub.ID))
	return s.provider.Send(ctx, sub.ID, "👋 You have been unsubscribed", html, text)
}

// SendTest sends a short connectivity check message.
func (s *Sender) SendTest(ctx context.Context, to string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("test recipient is required")
	}
	body := "Delivery test at " + s.now().Format(time.RFC3339) + ". If you can read this, sending works."
	return s.provider.Send(ctx, to, "Delivery test", "<p>"+body+"</p>", body)
}

func dailySubject(p storage.Problem, date string) string {
	emoji := map[storage.Difficulty]string{
		storage.DifficultyEasy:   "🟢",
		storage.DifficultyMedium: "🟡",
		storage.DifficultyHard:   "🔴",
	}[p.Difficulty]
	if emoji == "" {
		emoji = "💻"
	}
	return fmt.Sprintf("%s Daily Coding Challenge - %s (%s)", emoji, p.Title, date)
}

// displayName derives a greeting name from the identity: the local part of
// an email address, or the identity itself for other transports.
func displayName(id string) string {
	if i := strings.Index(id, "@"); i > 0 {
		return id[:i]
	}
	return id
}
