package llm

import (
	"fmt"
	"strings"

	"leetdrip/internal/storage"
)

const solveSystemPrompt = "You are an expert software engineer and competitive programmer. " +
	"Provide clear, efficient, and well-commented solutions to coding problems."

// langInfo carries per-language prompt details.
type langInfo struct {
	display       string
	fence         string
	commentPrefix string
}

var languages = map[string]langInfo{
	"python":     {display: "Python", fence: "python", commentPrefix: "#"},
	"java":       {display: "Java", fence: "java", commentPrefix: "//"},
	"cpp":        {display: "C++", fence: "cpp", commentPrefix: "//"},
	"javascript": {display: "JavaScript", fence: "javascript", commentPrefix: "//"},
	"go":         {display: "Go", fence: "go", commentPrefix: "//"},
	"rust":       {display: "Rust", fence: "rust", commentPrefix: "//"},
}

func languageInfo(language string) langInfo {
	if li, ok := languages[strings.ToLower(strings.TrimSpace(language))]; ok {
		return li
	}
	return languages["python"]
}

// CommentPrefix returns the line-comment prefix for a language ("#" or "//").
func CommentPrefix(language string) string {
	return languageInfo(language).commentPrefix
}

// SolvePrompt builds the chat messages asking for a structured solution.
// The required section headers are what ParseSolution looks for.
func SolvePrompt(p storage.Problem, language string) []Message {
	li := languageInfo(language)

	var b strings.Builder
	fmt.Fprintf(&b, "Solve the following coding problem in %s.\n\n", li.display)
	fmt.Fprintf(&b, "PROBLEM TITLE: %s\n\n", p.Title)
	fmt.Fprintf(&b, "PROBLEM DESCRIPTION:\n%s\n", p.Description)
	if p.Constraints != "" {
		fmt.Fprintf(&b, "\nCONSTRAINTS:\n%s\n", p.Constraints)
	}
	if len(p.Examples) > 0 {
		b.WriteString("\nEXAMPLES:\n")
		for i, ex := range p.Examples {
			fmt.Fprintf(&b, "Example %d:\n  Input: %s\n  Output: %s\n", i+1, ex.Input, ex.Output)
			if ex.Explanation != "" {
				fmt.Fprintf(&b, "  Explanation: %s\n", ex.Explanation)
			}
		}
	}

	fmt.Fprintf(&b, `
REQUIREMENTS:
1. Provide a complete, working solution in %s
2. Include comments explaining the approach
3. Analyze time and space complexity
4. Handle all edge cases mentioned in the constraints

Structure your response exactly as follows:

SOLUTION:
`+"```%s"+`
[complete solution code]
`+"```"+`

EXPLANATION:
[explanation of the approach and algorithm]

TIME COMPLEXITY:
[Big O time complexity analysis]

SPACE COMPLEXITY:
[Big O space complexity analysis]

APPROACH:
[step-by-step breakdown of the solution]
`, li.display, li.fence)

	return []Message{
		{Role: RoleSystem, Content: solveSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}
