package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "leetdrip/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UpsertSubscriber(ctx context.Context, sub Subscriber) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers(id, language, difficulty, active, created_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   language=excluded.language, difficulty=excluded.difficulty, active=excluded.active`,
		sub.ID, sub.Language, string(sub.Difficulty), boolInt(sub.Active),
		sub.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) Subscriber(ctx context.Context, id string) (Subscriber, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, language, difficulty, active, created_at FROM subscribers WHERE id = ?`, id)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	return sub, err
}

func (s *sqliteStore) Subscribers(ctx context.Context) ([]Subscriber, error) {
	return s.querySubscribers(ctx,
		`SELECT id, language, difficulty, active, created_at FROM subscribers ORDER BY id`)
}

func (s *sqliteStore) ActiveSubscribers(ctx context.Context) ([]Subscriber, error) {
	return s.querySubscribers(ctx,
		`SELECT id, language, difficulty, active, created_at FROM subscribers WHERE active = 1 ORDER BY id`)
}

func (s *sqliteStore) querySubscribers(ctx context.Context, q string) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetSubscriberActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) PutProblems(ctx context.Context, ps []Problem) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, p := range ps {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		tags, examples, hints, cases, err := encodeProblemJSON(p)
		if err != nil {
			return added, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO problems(id, title, description, difficulty, tags, constraints, examples, hints, test_cases, created_at)
			 VALUES(?,?,?,?,?,?,?,?,?,?)
			 ON CONFLICT(id) DO NOTHING`,
			p.ID, p.Title, p.Description, string(p.Difficulty),
			tags, nullStr(p.Constraints), examples, hints, cases,
			p.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return added, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, tx.Commit()
}

func (s *sqliteStore) Problems(ctx context.Context) ([]Problem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, difficulty, tags, constraints, examples, hints, test_cases, created_at
		 FROM problems ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Problem(ctx context.Context, id string) (Problem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, difficulty, tags, constraints, examples, hints, test_cases, created_at
		 FROM problems WHERE id = ?`, id)
	p, err := scanProblem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Problem{}, ErrNotFound
	}
	return p, err
}

func (s *sqliteStore) CountProblems(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`).Scan(&n)
	return n, err
}

func (s *sqliteStore) AppendDelivery(ctx context.Context, rec DeliveryRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries(subscriber_id, problem_id, at, outcome, reason)
		 VALUES(?,?,?,?,?)`,
		rec.SubscriberID, rec.ProblemID, rec.At.Format(time.RFC3339Nano),
		string(rec.Outcome), nullStr(rec.Reason),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateSuccess
	}
	return err
}

func (s *sqliteStore) DeliveredProblemIDs(ctx context.Context, subscriberID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT problem_id FROM deliveries WHERE subscriber_id = ? AND outcome = 'success'`,
		subscriberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeliveryCounts(ctx context.Context, subscriberID string) (int, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM deliveries WHERE subscriber_id = ? GROUP BY outcome`,
		subscriberID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var success, failure int
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return 0, 0, err
		}
		switch Outcome(outcome) {
		case OutcomeSuccess:
			success = n
		case OutcomeFailure:
			failure = n
		}
	}
	return success, failure, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(r rowScanner) (Subscriber, error) {
	var sub Subscriber
	var active int
	var created string
	if err := r.Scan(&sub.ID, &sub.Language, (*string)(&sub.Difficulty), &active, &created); err != nil {
		return Subscriber{}, err
	}
	sub.Active = active != 0
	sub.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return sub, nil
}

func scanProblem(r rowScanner) (Problem, error) {
	var p Problem
	var tags, constraints, examples, hints, cases sql.NullString
	var created string
	if err := r.Scan(&p.ID, &p.Title, &p.Description, (*string)(&p.Difficulty),
		&tags, &constraints, &examples, &hints, &cases, &created); err != nil {
		return Problem{}, err
	}
	p.Constraints = constraints.String
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if err := decodeJSONList(tags, &p.Tags); err != nil {
		return Problem{}, err
	}
	if err := decodeJSONList(examples, &p.Examples); err != nil {
		return Problem{}, err
	}
	if err := decodeJSONList(hints, &p.Hints); err != nil {
		return Problem{}, err
	}
	if err := decodeJSONList(cases, &p.TestCases); err != nil {
		return Problem{}, err
	}
	return p, nil
}

func encodeProblemJSON(p Problem) (tags, examples, hints, cases any, err error) {
	if tags, err = encodeJSONList(p.Tags); err != nil {
		return
	}
	if examples, err = encodeJSONList(p.Examples); err != nil {
		return
	}
	if hints, err = encodeJSONList(p.Hints); err != nil {
		return
	}
	cases, err = encodeJSONList(p.TestCases)
	return
}

func encodeJSONList[T any](v []T) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeJSONList[T any](v sql.NullString, dst *[]T) error {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	return json.Unmarshal([]byte(v.String), dst)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
