// Package tgtext builds Telegram-safe message text: HTML escaping for
// ParseMode="HTML" and Unicode-aware splitting under Telegram's 4096
// character message limit.
package tgtext

import (
	"html"
	"strings"
	"unicode/utf8"
)

// MaxMessageLen is Telegram's hard limit for a single message.
const MaxMessageLen = 4096

// H represents HTML that is safe to pass to Telegram when ParseMode="HTML".
// Values of type H should be treated as already-escaped.
type H string

func (h H) String() string { return string(h) }

// Esc escapes text for Telegram HTML parse mode.
func Esc(s string) H { return H(html.EscapeString(s)) }

func wrap(tag string, inner H) H { return H("<" + tag + ">" + inner.String() + "</" + tag + ">") }

// B renders bold text.
func B(s string) H { return wrap("b", Esc(s)) }

// Code renders inline code.
func Code(s string) H { return wrap("code", Esc(s)) }

// Pre renders a preformatted block. Telegram requires balanced tags per
// message, so long content must be split before wrapping.
func Pre(s string) H {
	return H("<pre><code>" + html.EscapeString(s) + "</code></pre>")
}

// TruncRunes returns s truncated to at most n runes.
// It appends an ellipsis "…" when truncated.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	cut := 0
	for i, r := range s {
		count++
		if count == n {
			cut = i + utf8.RuneLen(r)
			continue
		}
		if count > n {
			if cut <= 0 {
				cut = i
			}
			return s[:cut] + "…"
		}
	}
	return s
}

// Split breaks s into chunks of at most limit runes, preferring newline
// boundaries in the trailing two thirds of each window. Chunks never cut a
// rune in half.
func Split(s string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}

	var out []string
	start := 0 // byte index
	for start < len(s) {
		runes := 0
		end := start
		lastNL := -1 // byte index after the last newline in this window
		lastNLRunes := 0
		for end < len(s) && runes < limit {
			r, size := utf8.DecodeRuneInString(s[end:])
			if r == '\n' {
				lastNL = end + size
				lastNLRunes = runes + 1
			}
			runes++
			end += size
		}
		if end < len(s) && lastNL != -1 && lastNLRunes >= limit/3 {
			end = lastNL
		}
		chunk := strings.TrimRight(s[start:end], "\n")
		if chunk != "" {
			out = append(out, chunk)
		}
		start = end
		for start < len(s) {
			r, size := utf8.DecodeRuneInString(s[start:])
			if r != '\n' {
				break
			}
			start += size
		}
	}
	return out
}
