package mail

import (
	htmltpl "html/template"
	"strings"
	texttpl "text/template"

	"leetdrip/internal/llm"
	"leetdrip/internal/storage"
)

type dailyData struct {
	Recipient string
	Problem   storage.Problem
	Solution  llm.Solution
	Date      string
	Degraded  bool
}

type welcomeData struct {
	Recipient  string
	Language   string
	Difficulty string
}

var tplFuncs = htmltpl.FuncMap{
	"nl2br": func(s string) htmltpl.HTML {
		escaped := htmltpl.HTMLEscapeString(s)
		return htmltpl.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"upper": strings.ToUpper,
}

var dailyHTML = htmltpl.Must(htmltpl.New("daily").Funcs(tplFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Daily Coding Challenge</title></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px;">
    <h1 style="margin: 0; font-size: 28px;">🚀 Daily Coding Challenge</h1>
    <p style="margin: 10px 0 0 0; opacity: 0.9;">Hello {{.Recipient}}! Ready to code?</p>
  </div>

  <div style="border: 1px solid #e1e5e9; border-radius: 8px; padding: 25px; margin-bottom: 25px;">
    <h2 style="color: #2c3e50;">{{.Problem.Title}}
      <span style="font-size: 12px; font-weight: bold; text-transform: uppercase; color: #764ba2;">[{{.Problem.Difficulty}}]</span>
    </h2>
    <h3>📋 Problem Description</h3>
    <div style="background-color: #f8f9fa; padding: 20px; border-radius: 6px;">{{nl2br .Problem.Description}}</div>
{{- if .Problem.Examples}}
    <h3>📝 Examples</h3>
{{- range $i, $ex := .Problem.Examples}}
    <div style="background-color: #f8f9fa; padding: 12px; border-radius: 6px; margin: 8px 0;">
      <strong>Input:</strong> {{$ex.Input}}<br>
      <strong>Output:</strong> {{$ex.Output}}<br>
      {{- if $ex.Explanation}}<strong>Explanation:</strong> {{$ex.Explanation}}{{end}}
    </div>
{{- end}}
{{- end}}
{{- if .Problem.Constraints}}
    <h3>⚠️ Constraints</h3>
    <div style="background-color: #fff3cd; padding: 15px; border-radius: 6px; border-left: 4px solid #ffc107;">{{nl2br .Problem.Constraints}}</div>
{{- end}}
{{- if .Problem.Hints}}
    <h3>💭 Hints</h3>
    <ul>{{range .Problem.Hints}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
  </div>

  <div style="border: 1px solid #e1e5e9; border-radius: 8px; padding: 25px; margin-bottom: 25px;">
    <h2 style="color: #2c3e50;">💡 Solution in {{title .Solution.Language}}</h2>
    <pre style="background-color: #2d2d2d; color: #f8f8f2; padding: 20px; border-radius: 6px; overflow-x: auto;"><code>{{.Solution.Code}}</code></pre>
{{- if .Solution.Explanation}}
    <h3>📖 Explanation</h3>
    <div style="background-color: #e8f5e8; padding: 20px; border-radius: 6px; border-left: 4px solid #28a745;">{{nl2br .Solution.Explanation}}</div>
{{- end}}
{{- if or .Solution.TimeComplexity .Solution.SpaceComplexity}}
    <p>
      {{- if .Solution.TimeComplexity}}<strong>⏱️ Time Complexity:</strong> {{.Solution.TimeComplexity}}<br>{{end}}
      {{- if .Solution.SpaceComplexity}}<strong>💾 Space Complexity:</strong> {{.Solution.SpaceComplexity}}{{end}}
    </p>
{{- end}}
{{- if .Solution.Approach}}
    <h3>🧭 Approach</h3>
    <div style="background-color: #f8f9fa; padding: 15px; border-radius: 6px;">{{nl2br .Solution.Approach}}</div>
{{- end}}
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; text-align: center; color: #6c757d;">
    <p style="margin: 0; font-size: 14px;">🎯 Keep coding, keep growing! Tomorrow brings a new challenge.<br>
      <small>Language: {{title .Solution.Language}} | Difficulty: {{title (printf "%s" .Problem.Difficulty)}} | {{.Date}}</small>
    </p>
  </div>
</body>
</html>
`))

var dailyText = texttpl.Must(texttpl.New("daily").Parse(`🚀 DAILY CODING CHALLENGE - {{.Date}}

Hello {{.Recipient}}! Ready to code?

{{.Problem.Title}} [{{.Problem.Difficulty}}]

PROBLEM:
{{.Problem.Description}}
{{- if .Problem.Examples}}

EXAMPLES:
{{- range $i, $ex := .Problem.Examples}}
Input: {{$ex.Input}}
Output: {{$ex.Output}}
{{- if $ex.Explanation}}
Explanation: {{$ex.Explanation}}
{{- end}}
{{- end}}
{{- end}}
{{- if .Problem.Constraints}}

CONSTRAINTS:
{{.Problem.Constraints}}
{{- end}}
{{- if .Problem.Hints}}

HINTS:
{{- range .Problem.Hints}}
- {{.}}
{{- end}}
{{- end}}

SOLUTION ({{.Solution.Language}}):
{{.Solution.Code}}
{{- if .Solution.Explanation}}

EXPLANATION:
{{.Solution.Explanation}}
{{- end}}
{{- if .Solution.TimeComplexity}}

Time Complexity: {{.Solution.TimeComplexity}}
{{- end}}
{{- if .Solution.SpaceComplexity}}
Space Complexity: {{.Solution.SpaceComplexity}}
{{- end}}

Keep coding, keep growing! Tomorrow brings a new challenge.
`))

var welcomeHTML = htmltpl.Must(htmltpl.New("welcome").Funcs(tplFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px; text-align: center;">
    <h1 style="margin: 0;">🎉 Welcome, {{.Recipient}}!</h1>
  </div>
  <p>You are subscribed to daily coding challenges.</p>
  <ul>
    <li><strong>Language:</strong> {{title .Language}}</li>
    <li><strong>Difficulty:</strong> {{title .Difficulty}}</li>
  </ul>
  <p>Your first challenge will arrive on the next scheduled run. Get ready to code! 🚀</p>
</body>
</html>
`))

var welcomeText = texttpl.Must(texttpl.New("welcome").Parse(`🎉 Welcome, {{.Recipient}}!

You are subscribed to daily coding challenges.

Language: {{.Language}}
Difficulty: {{.Difficulty}}

Your first challenge will arrive on the next scheduled run. Get ready to code! 🚀
`))

var goodbyeHTML = htmltpl.Must(htmltpl.New("goodbye").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1>👋 Goodbye, {{.Recipient}}</h1>
  <p>You have been unsubscribed and will not receive further challenges. Resubscribe any time.</p>
</body>
</html>
`))

var goodbyeText = texttpl.Must(texttpl.New("goodbye").Parse(`👋 Goodbye, {{.Recipient}}

You have been unsubscribed and will not receive further challenges. Resubscribe any time.
`))

func renderDaily(d dailyData) (html, text string, err error) {
	return renderPair(dailyHTML, dailyText, d)
}

func renderWelcome(d welcomeData) (html, text string, err error) {
	return renderPair(welcomeHTML, welcomeText, d)
}

func renderGoodbye(d welcomeData) (html, text string, err error) {
	return renderPair(goodbyeHTML, goodbyeText, d)
}

func renderPair(h *htmltpl.Template, t *texttpl.Template, data any) (string, string, error) {
	var hb, tb strings.Builder
	if err := h.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := t.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
