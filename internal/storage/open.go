package storage

import (
	"context"
	"errors"
	"strings"

	logx "leetdrip/pkg/logx"
)

// Store is the persistence API used by delivery, schedule, and the CLI.
//
// AppendDelivery must reject a second success for the same
// (subscriber, problem) pair with ErrDuplicateSuccess; failure records are
// unconstrained and never block re-selection.
type Store interface {
	// Subscribers.
	UpsertSubscriber(ctx context.Context, s Subscriber) error
	Subscriber(ctx context.Context, id string) (Subscriber, error)
	Subscribers(ctx context.Context) ([]Subscriber, error)
	ActiveSubscribers(ctx context.Context) ([]Subscriber, error)
	SetSubscriberActive(ctx context.Context, id string, active bool) error

	// Problem catalog.
	PutProblems(ctx context.Context, ps []Problem) (added int, err error)
	Problems(ctx context.Context) ([]Problem, error)
	Problem(ctx context.Context, id string) (Problem, error)
	CountProblems(ctx context.Context) (int, error)

	// Delivery ledger.
	AppendDelivery(ctx context.Context, rec DeliveryRecord) error
	DeliveredProblemIDs(ctx context.Context, subscriberID string) (map[string]bool, error)
	DeliveryCounts(ctx context.Context, subscriberID string) (success, failure int, err error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return newMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
