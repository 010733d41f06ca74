package llm

import (
	"strings"
	"testing"
)

func TestEmbellishAddsComments(t *testing.T) {
	t.Parallel()
	e := NewEmbellisher(1)
	sol := Solution{
		Language: "python",
		Code:     "def two_sum(nums, target):\n    seen = {}\n    for i, n in enumerate(nums):\n        if target - n in seen:\n            return [seen[target - n], i]\n        seen[n] = i",
	}
	got, err := e.Embellish(sol)
	if err != nil {
		t.Fatalf("embellish: %v", err)
	}
	if got.Code == sol.Code {
		t.Fatal("code unchanged")
	}
	if !strings.Contains(got.Code, "def two_sum") {
		t.Fatal("original code lost")
	}
	// Python code gets python-style comments.
	for _, line := range strings.Split(got.Code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			t.Fatalf("wrong comment syntax for python: %q", line)
		}
	}
	// Input untouched.
	if strings.Contains(sol.Code, "#") {
		t.Fatal("input solution was mutated")
	}
}

func TestEmbellishGoUsesSlashComments(t *testing.T) {
	t.Parallel()
	e := NewEmbellisher(7)
	got, err := e.Embellish(Solution{Language: "go", Code: "func f() int {\n\treturn 1\n}"})
	if err != nil {
		t.Fatalf("embellish: %v", err)
	}
	if !strings.Contains(got.Code, "//") {
		t.Fatalf("no comments injected:\n%s", got.Code)
	}
}

func TestEmbellishRejectsEmptyCode(t *testing.T) {
	t.Parallel()
	e := NewEmbellisher(1)
	if _, err := e.Embellish(Solution{Language: "python"}); err == nil {
		t.Fatal("want error for empty code")
	}
}

func TestCategoriesFor(t *testing.T) {
	t.Parallel()
	cats := categoriesFor("for i := range nums { m[i] = sort.Ints(nums) }")
	has := func(want string) bool {
		for _, c := range cats {
			if c == want {
				return true
			}
		}
		return false
	}
	for _, want := range []string{"general", "loops", "arrays", "sorting"} {
		if !has(want) {
			t.Errorf("missing category %q in %v", want, cats)
		}
	}
}
