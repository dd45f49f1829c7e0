// Package web serves the HTML landing page with usage examples.
package web

import (
	"html/template"
	"net/http"
)

// PageData feeds the landing page template.
type PageData struct {
	Version      string
	DefaultLimit int
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Handler returns the landing page handler. Unknown paths get a 404 so
// typos in card URLs fail loudly instead of serving HTML.
func Handler(data PageData) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, data); err != nil {
			http.Error(w, "template error", http.StatusInternalServerError)
		}
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>git-cards</title>
<style>
  body { background: #0d1117; color: #c9d1d9; font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; max-width: 760px; margin: 0 auto; padding: 2rem 1rem; }
  h1 { color: #58a6ff; }
  h2 { border-bottom: 1px solid #30363d; padding-bottom: 0.3rem; }
  code, pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; font-family: ui-monospace, 'SF Mono', Menlo, monospace; }
  code { padding: 0.15rem 0.35rem; }
  pre { padding: 0.75rem 1rem; overflow-x: auto; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #30363d; padding: 0.4rem 0.6rem; text-align: left; }
  a { color: #58a6ff; text-decoration: none; }
  footer { margin-top: 3rem; color: #8b949e; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>git-cards</h1>
<p>SVG stat cards for GitHub profiles. Embed them in a README with a plain image tag.</p>

<h2>Code identifiers card</h2>
<p>Scans public repositories and ranks the identifiers the code declares most.</p>
<pre>![Top Identifiers](https://your-host/api/code_identifiers?username=octocat)</pre>

<h2>Language stats card</h2>
<p>Language share by bytes of code across public repositories.</p>
<pre>![Top Languages](https://your-host/api/language_stats?username=octocat&amp;mode=percent)</pre>

<h2>Parameters</h2>
<table>
<tr><th>Name</th><th>Applies to</th><th>Description</th></tr>
<tr><td><code>username</code></td><td>both</td><td>GitHub account to scan. Also accepted as a path segment, e.g. <code>/api/code_identifiers/octocat</code>.</td></tr>
<tr><td><code>limit</code></td><td>identifiers</td><td>Rows to show, default {{.DefaultLimit}}, max 50.</td></tr>
<tr><td><code>langs</code></td><td>identifiers</td><td>Comma-separated language filter, e.g. <code>go,python</code>.</td></tr>
<tr><td><code>mode</code></td><td>languages</td><td><code>percent</code>, <code>bytes</code> or <code>both</code>.</td></tr>
<tr><td><code>width</code></td><td>both</td><td>Card width in pixels, minimum 200.</td></tr>
</table>

<footer>git-cards {{.Version}}</footer>
</body>
</html>
`
