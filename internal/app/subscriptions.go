package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// Subscribe registers or updates a subscriber and sends a welcome message.
// Re-subscribing an existing identity reactivates it and updates preferences;
// delivery history is kept, so no problem is ever repeated.
func (a *App) Subscribe(ctx context.Context, id, language, difficulty string) (storage.Subscriber, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Subscriber{}, errors.New("subscriber identity is required")
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = "python"
	}
	if !a.Cfg.LanguageSupported(language) {
		return storage.Subscriber{}, fmt.Errorf("unsupported language %q (supported: %s)",
			language, strings.Join(a.Cfg.SupportedLanguages(), ", "))
	}
	diff, err := storage.ParseDifficulty(difficulty)
	if err != nil {
		return storage.Subscriber{}, err
	}

	sub := storage.Subscriber{ID: id, Language: language, Difficulty: diff, Active: true}
	if err := a.Store.UpsertSubscriber(ctx, sub); err != nil {
		return storage.Subscriber{}, fmt.Errorf("store subscriber: %w", err)
	}
	a.Log.Info("subscriber registered",
		logx.String("subscriber", id),
		logx.String("language", language),
		logx.String("difficulty", string(diff)),
	)

	if err := a.Sender.SendWelcome(ctx, sub); err != nil {
		// Registration stands; the welcome message is best effort.
		a.Log.Warn("welcome message failed", logx.String("subscriber", id), logx.Err(err))
	}
	return sub, nil
}

// Unsubscribe deactivates a subscriber, keeping its history, and sends a
// confirmation.
func (a *App) Unsubscribe(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	sub, err := a.Store.Subscriber(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Store.SetSubscriberActive(ctx, id, false); err != nil {
		return err
	}
	a.Log.Info("subscriber deactivated", logx.String("subscriber", id))

	if err := a.Sender.SendGoodbye(ctx, sub); err != nil {
		a.Log.Warn("goodbye message failed", logx.String("subscriber", id), logx.Err(err))
	}
	return nil
}

// SubscriberInfo is one row of the subscribers listing.
type SubscriberInfo struct {
	storage.Subscriber
	Delivered int
	Failed    int
}

// ListSubscribers returns all subscribers with their delivery tallies.
func (a *App) ListSubscribers(ctx context.Context) ([]SubscriberInfo, error) {
	subs, err := a.Store.Subscribers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriberInfo, 0, len(subs))
	for _, s := range subs {
		success, failure, err := a.Store.DeliveryCounts(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, SubscriberInfo{Subscriber: s, Delivered: success, Failed: failure})
	}
	return out, nil
}
