package llm

import (
	"regexp"
	"strings"
)

// Solution is the parsed structured response for one problem.
type Solution struct {
	Code            string
	Explanation     string
	TimeComplexity  string
	SpaceComplexity string
	Approach        string
	Language        string
	Model           string
}

// Valid reports whether the solution is usable: a non-empty code body is the
// minimum; missing analysis sections degrade the message but do not fail it.
func (s Solution) Valid() bool {
	return strings.TrimSpace(s.Code) != ""
}

// ParseSolution extracts the sections SolvePrompt asks for. Models do not
// always follow the layout, so parsing is forgiving: when section headers are
// missing it falls back to grabbing any fenced code block and using the whole
// response as the explanation.
func ParseSolution(content, language string) Solution {
	sol := Solution{Language: strings.ToLower(strings.TrimSpace(language))}

	sections := map[string]*string{
		"solution":         nil, // handled separately: fenced code
		"explanation":      &sol.Explanation,
		"time complexity":  &sol.TimeComplexity,
		"space complexity": &sol.SpaceComplexity,
		"approach":         &sol.Approach,
	}

	var current string
	var buf []string
	flush := func() {
		if current == "" {
			return
		}
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if current == "solution" {
			sol.Code = extractCodeBlock(text, sol.Language)
		} else if dst := sections[current]; dst != nil {
			*dst = text
		}
	}

	for _, line := range strings.Split(content, "\n") {
		header := sectionHeader(line)
		if _, ok := sections[header]; ok && header != "" {
			flush()
			current = header
			buf = buf[:0]
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()

	if sol.Code == "" {
		sol.Code = extractCodeBlock(content, sol.Language)
	}
	if sol.Explanation == "" {
		sol.Explanation = strings.TrimSpace(content)
	}
	return sol
}

// sectionHeader returns the lowercase header name when the line is a section
// header like "EXPLANATION:" or "**Time Complexity:**", else "".
func sectionHeader(line string) string {
	s := strings.ToLower(strings.TrimSpace(line))
	s = strings.Trim(s, "*# ")
	if i := strings.Index(s, ":"); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return ""
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9+-]*[ \t]*\n(.*?)\n?```")

// extractCodeBlock pulls the first fenced code block, preferring one tagged
// with the expected language.
func extractCodeBlock(content, language string) string {
	if language != "" {
		tagged := regexp.MustCompile("(?is)```" + regexp.QuoteMeta(language) + "[ \t]*\n(.*?)\n?```")
		if m := tagged.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := fencedBlock.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
