// Package catalog imports coding problems from a JSON file into storage and
// optionally watches the file for additions.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// problemDoc is the on-disk shape of one catalog entry. The id is optional;
// when absent it is derived from the title.
type problemDoc struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Difficulty  string             `json:"difficulty"`
	Tags        []string           `json:"tags"`
	Constraints string             `json:"constraints"`
	Examples    []storage.Example  `json:"examples"`
	Hints       []string           `json:"hints"`
	TestCases   []storage.TestCase `json:"test_cases"`
}

type catalogDoc struct {
	Problems []problemDoc `json:"problems"`
}

// ImportFile reads a catalog file and inserts any problems not already in the
// store. Existing IDs are left untouched, so re-importing the same file is a
// no-op. Returns (added, total-in-file).
func ImportFile(ctx context.Context, st storage.Store, path string, log logx.Logger) (int, int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read catalog: %w", err)
	}
	ps, err := Parse(b)
	if err != nil {
		return 0, 0, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	added, err := st.PutProblems(ctx, ps)
	if err != nil {
		return added, len(ps), fmt.Errorf("store catalog: %w", err)
	}
	if !log.IsZero() {
		log.Info("catalog imported",
			logx.String("path", path),
			logx.Int("in_file", len(ps)),
			logx.Int("added", added),
		)
	}
	return added, len(ps), nil
}

// Parse decodes a catalog document. Accepts either a bare JSON array of
// problems or an object with a "problems" key.
func Parse(b []byte) ([]storage.Problem, error) {
	var docs []problemDoc
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(b, &docs); err != nil {
			return nil, err
		}
	} else {
		var doc catalogDoc
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		docs = doc.Problems
	}

	seen := make(map[string]bool, len(docs))
	out := make([]storage.Problem, 0, len(docs))
	for i, d := range docs {
		p, err := d.toProblem()
		if err != nil {
			return nil, fmt.Errorf("problem #%d: %w", i+1, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("problem #%d: duplicate id %q", i+1, p.ID)
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

func (d problemDoc) toProblem() (storage.Problem, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return storage.Problem{}, fmt.Errorf("title is required")
	}
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = Slug(title)
	}
	if id == "" {
		return storage.Problem{}, fmt.Errorf("cannot derive id from title %q", d.Title)
	}
	if strings.TrimSpace(d.Description) == "" {
		return storage.Problem{}, fmt.Errorf("%s: description is required", id)
	}
	diff, err := storage.ParseDifficulty(d.Difficulty)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("%s: %w", id, err)
	}
	if diff == storage.DifficultyAny {
		return storage.Problem{}, fmt.Errorf("%s: difficulty must be easy, medium, or hard", id)
	}
	return storage.Problem{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Difficulty:  diff,
		Tags:        d.Tags,
		Constraints: strings.TrimSpace(d.Constraints),
		Examples:    d.Examples,
		Hints:       d.Hints,
		TestCases:   d.TestCases,
	}, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a stable lowercase-hyphen id from a title,
// e.g. "Two Sum" -> "two-sum".
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
