package mail

import (
	"context"
	"strings"
	"testing"

	"leetdrip/internal/llm"
	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

func sampleProblem() storage.Problem {
	return storage.Problem{
		ID:          "two-sum",
		Title:       "Two Sum",
		Description: "Given an array of integers nums and a target,\nreturn indices of the two numbers that add to target.",
		Difficulty:  storage.DifficultyEasy,
		Constraints: "2 <= nums.length <= 10^4",
		Examples:    []storage.Example{{Input: "nums = [2,7,11,15], target = 9", Output: "[0,1]", Explanation: "2 + 7 == 9"}},
		Hints:       []string{"Try a hash map."},
	}
}

func sampleSolution() llm.Solution {
	return llm.Solution{
		Code:            "def two_sum(nums, target):\n    seen = {}",
		Explanation:     "Walk the array once.",
		TimeComplexity:  "O(n)",
		SpaceComplexity: "O(n)",
		Language:        "python",
	}
}

func TestRenderDaily(t *testing.T) {
	t.Parallel()
	html, text, err := renderDaily(dailyData{
		Recipient: "alice",
		Problem:   sampleProblem(),
		Solution:  sampleSolution(),
		Date:      "2026-08-29",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Two Sum", "Hello alice", "def two_sum", "O(n)", "Try a hash map.", "2026-08-29"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q", want)
		}
	}
	// Multi-line fields become <br> in HTML.
	if !strings.Contains(html, "nums and a target,<br>return indices") {
		t.Error("description newlines not converted")
	}
	if strings.Contains(text, "<br>") {
		t.Error("html leaked into text body")
	}
}

func TestRenderDailyEscapesHTML(t *testing.T) {
	t.Parallel()
	p := sampleProblem()
	p.Description = "x < y && y > z\n<script>alert(1)</script>"
	html, _, err := renderDaily(dailyData{Recipient: "bob", Problem: p, Solution: sampleSolution(), Date: "2026-08-29"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("description not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped form missing")
	}
}

func TestSenderDaily(t *testing.T) {
	t.Parallel()
	mock := NewMock(logx.Nop())
	s := NewSender(mock, logx.Nop())

	sub := storage.Subscriber{ID: "alice@example.com", Language: "python", Difficulty: storage.DifficultyEasy}
	if err := s.SendDaily(context.Background(), sub, sampleProblem(), sampleSolution(), false); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := mock.Sent()
	if len(sent) != 1 {
		t.Fatalf("want 1 message, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com" {
		t.Errorf("to = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, "Two Sum") || !strings.HasPrefix(sent[0].Subject, "🟢") {
		t.Errorf("subject = %q", sent[0].Subject)
	}
	if !strings.Contains(sent[0].HTML, "Hello alice") {
		t.Error("greeting should use the address local part")
	}
}

func TestSenderWelcomeAndGoodbye(t *testing.T) {
	t.Parallel()
	mock := NewMock(logx.Nop())
	s := NewSender(mock, logx.Nop())
	sub := storage.Subscriber{ID: "tg:12345", Language: "go", Difficulty: storage.DifficultyAny}

	if err := s.SendWelcome(context.Background(), sub); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if err := s.SendGoodbye(context.Background(), sub); err != nil {
		t.Fatalf("goodbye: %v", err)
	}

	sent := mock.Sent()
	if len(sent) != 2 {
		t.Fatalf("want 2 messages, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Text, "tg:12345") || !strings.Contains(sent[0].Text, "go") {
		t.Errorf("welcome text = %q", sent[0].Text)
	}
	if !strings.Contains(sent[1].Subject, "unsubscribed") {
		t.Errorf("goodbye subject = %q", sent[1].Subject)
	}
}

func TestSanitizeHeader(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"alice@example.com":                      "alice@example.com",
		"evil@example.com\r\nBcc: all@corp":      "evil@example.comBcc: all@corp",
		"subject\nwith\nnewlines":                "subjectwithnewlines",
		"tab\tand\x7fdel":                        "tabanddel",
		"unicode stays: 🟢 Daily Coding - héllo": "unicode stays: 🟢 Daily Coding - héllo",
	}
	for in, want := range cases {
		if got := sanitizeHeader(in); got != want {
			t.Errorf("sanitizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildMIME(t *testing.T) {
	t.Parallel()
	msg := buildMIME("bot@example.com", "alice@example.com", "Hi", "<p>hello</p>", "hello")
	for _, want := range []string{
		"MIME-Version: 1.0",
		"From: bot@example.com",
		"To: alice@example.com",
		"Subject: Hi",
		"multipart/alternative",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
		"<p>hello</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("mime missing %q", want)
		}
	}
}

func TestChatID(t *testing.T) {
	t.Parallel()
	id, err := chatID("tg:12345")
	if err != nil || id != 12345 {
		t.Fatalf("chatID = %d, %v", id, err)
	}
	if _, err := chatID("alice@example.com"); err == nil {
		t.Fatal("want error for non-telegram identity")
	}
	if _, err := chatID("tg:notanumber"); err == nil {
		t.Fatal("want error for bad chat id")
	}
}

