package view

import (
	"bytes"
	"html/template"
	"time"
)

// PreviewPageData provides the dynamic fields required by the preview template.
type PreviewPageData struct {
	Slug      string
	ShortURL  string
	TargetURL string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Expired   bool
}

var previewPageTmpl = template.Must(template.New("preview_page").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("2 Jan 2006 15:04 MST") },
}).Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<meta name="robots" content="noindex" />
	<title>Preview /{{.Slug}}</title>
	<style>
		:root {
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			--warn: #fbbf24;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			width: min(520px, 92vw);
		}
		p { color: var(--muted); margin-top: 0; }
		.destination {
			margin: 24px 0;
			padding: 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			word-break: break-all;
		}
		.expired {
			color: var(--warn);
			font-weight: 600;
		}
		a.button {
			display: inline-flex;
			align-items: center;
			padding: 0 28px;
			height: 48px;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			text-decoration: none;
		}
		.meta {
			margin-top: 16px;
			font-size: 0.85rem;
			color: rgba(231, 236, 255, 0.65);
		}
	</style>
</head>
<body>
	<div class="card">
		<h1>Where does this link go?</h1>
		<p><strong>{{.ShortURL}}</strong> points to:</p>

		<div class="destination">{{.TargetURL}}</div>

		{{if .Expired}}
		<p class="expired">This link expired on {{date .ExpiresAt}}.</p>
		{{else if .ExpiresAt}}
		<p>Expires on {{date .ExpiresAt}}.</p>
		{{end}}

		<a class="button" href="{{.TargetURL}}" rel="noopener noreferrer">Continue</a>

		<div class="meta">Created {{date .CreatedAt}}</div>
	</div>
</body>
</html>
`))

// RenderPreviewPage expands the preview page template with the provided data.
func RenderPreviewPage(data PreviewPageData) (string, error) {
	var buf bytes.Buffer
	if err := previewPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
