package llm

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
)

// humorTemplates are grouped by the programming concept they riff on.
// Comments are written "//"-style and rewritten per language.
var humorTemplates = map[string][]string{
	"general": {
		"// This code is like a good joke - it works better when you don't explain it",
		"// If debugging is the process of removing bugs, then programming must be the process of putting them in",
		"// This solution is so elegant, it should be wearing a tuxedo",
		"// Warning: this code may cause sudden understanding and mild euphoria",
		"// This function is more reliable than my morning alarm clock",
	},
	"loops": {
		"// This loop is like my motivation on Monday morning - it takes a while to get going",
		"// This while loop is more persistent than a telemarketer",
		"// Going in circles? That's just how we roll in programming!",
	},
	"arrays": {
		"// Arrays: because life is too short to access elements one at a time",
		"// Zero-indexed arrays: because programmers like to start counting from scratch",
		"// This array is more organized than my desk (which isn't saying much)",
	},
	"hash_tables": {
		"// Hash tables: where every key finds its perfect match (unlike dating apps)",
		"// O(1) lookup time - faster than finding your keys in the morning",
		"// This hash map is more reliable than my memory",
	},
	"recursion": {
		"// To understand recursion, you must first understand recursion",
		"// Base case: the light at the end of the recursive tunnel",
		"// Recursive calls: it's functions all the way down",
	},
	"sorting": {
		"// Sorting: because chaos is only fun in small doses",
		"// Quick sort: living up to its name since 1960",
	},
	"binary_search": {
		"// Binary search: because linear search is for quitters",
		"// Cutting the search space in half, like a digital samurai",
	},
	"dynamic_programming": {
		"// Memoization: the art of not repeating your mistakes (or calculations)",
		"// Bottom-up approach: building solutions like a skyscraper",
	},
	"edge_cases": {
		"// Edge case handling: because Murphy's Law applies to code too",
		"// Boundary conditions: where algorithms go to test their limits",
	},
}

// Embellisher injects lighthearted comments into solution code. It is local
// and template-based, so it cannot be rate limited; it fails only on empty
// input.
type Embellisher struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEmbellisher(seed int64) *Embellisher {
	return &Embellisher{rng: rand.New(rand.NewSource(seed))}
}

// Embellish returns the solution with humor comments added to its code.
// The input solution is not modified.
func (e *Embellisher) Embellish(sol Solution) (Solution, error) {
	if !sol.Valid() {
		return sol, errors.New("no solution code to embellish")
	}

	comments := e.pick(categoriesFor(sol.Code), sol.Language)
	if len(comments) == 0 {
		return sol, nil
	}
	sol.Code = injectComments(sol.Code, comments)
	return sol, nil
}

// categoriesFor maps code keywords to humor categories; "general" always
// applies.
func categoriesFor(code string) []string {
	lower := strings.ToLower(code)
	cats := []string{"general"}
	add := func(cat string, keywords ...string) {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				cats = append(cats, cat)
				return
			}
		}
	}
	add("loops", "for", "while")
	add("arrays", "array", "list", "[]", "nums")
	add("hash_tables", "dict", "map", "hash", "{}")
	add("sorting", "sort")
	add("binary_search", "left", "right", "mid")
	add("dynamic_programming", "dp", "memo", "cache")
	add("edge_cases", "if", "try", "error")
	if strings.Count(lower, "def ") > 1 || strings.Count(lower, "func ") > 1 {
		cats = append(cats, "recursion")
	}
	return cats
}

// pick selects 2-4 comments across the matched categories, rewritten for the
// target language's comment syntax.
func (e *Embellisher) pick(categories []string, language string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefix := CommentPrefix(language)
	n := 2 + e.rng.Intn(3)
	seen := map[string]bool{}
	var out []string
	for i := 0; i < n*4 && len(out) < n; i++ {
		cat := categories[e.rng.Intn(len(categories))]
		pool := humorTemplates[cat]
		c := pool[e.rng.Intn(len(pool))]
		if prefix != "//" {
			c = prefix + strings.TrimPrefix(c, "//")
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// injectComments puts the first comment as a header and spreads the rest
// before return statements; leftovers go at the end.
func injectComments(code string, comments []string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines)+len(comments)+2)

	out = append(out, comments[0], "")
	next := 1

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if next < len(comments) && (strings.HasPrefix(trimmed, "return ") || trimmed == "return") {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+comments[next])
			next++
		}
		out = append(out, line)
	}
	for ; next < len(comments); next++ {
		out = append(out, "", comments[next])
	}
	return strings.Join(out, "\n")
}
