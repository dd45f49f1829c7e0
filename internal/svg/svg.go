// Package svg renders stat cards as standalone SVG documents. It is
// pure presentation: callers hand it already-ranked, already-filtered
// data and get back a complete <svg> string.
//
// The palette follows GitHub's dark theme so cards blend into profile
// READMEs.
package svg

import (
	"fmt"
	"strings"
)

// Card geometry shared by every card type.
const (
	DefaultWidth = 480
	MinWidth     = 200
	Padding      = 20
	HeaderHeight = 40
)

// Dark palette.
const (
	colorBackground = "#0d1117"
	colorBorder     = "#30363d"
	colorBarTrack   = "#21262d"
	colorFallback   = "#58a6ff"
)

// Escape sanitizes text for SVG output.
func Escape(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(text)
}

// ClampWidth bounds a requested card width to something renderable.
func ClampWidth(width int) int {
	if width <= 0 {
		return DefaultWidth
	}
	if width < MinWidth {
		return MinWidth
	}
	return width
}

// Frame wraps body content in the standard card chrome: rounded dark
// rect, border, title, and the shared text styles.
func Frame(title, body string, width, contentHeight int) string {
	totalHeight := HeaderHeight + contentHeight + Padding

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		width, totalHeight, width, totalHeight)
	b.WriteString(`<style>
.title { font: 600 16px "Segoe UI", Ubuntu, Sans-Serif; fill: #c9d1d9; }
.stat-name { font: 600 13px "Segoe UI", Ubuntu, Sans-Serif; fill: #c9d1d9; }
.stat-value { font: 400 12px "Segoe UI", Ubuntu, Sans-Serif; fill: #8b949e; }
</style>`)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s" rx="6" stroke="%s" stroke-width="1"/>`,
		width, totalHeight, colorBackground, colorBorder)
	fmt.Fprintf(&b, `<text x="%d" y="30" class="title">%s</text>`, Padding, Escape(title))
	fmt.Fprintf(&b, `<g transform="translate(0, %d)">%s</g>`, HeaderHeight-10, body)
	b.WriteString(`</svg>`)
	return b.String()
}

// ErrorCard renders a standalone failure card. Only the first few lines
// of the message are shown.
func ErrorCard(title, message string) string {
	lines := strings.Split(message, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	height := 60 + len(lines)*20

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="400" height="%d" xmlns="http://www.w3.org/2000/svg">`, height)
	b.WriteString(`<style>
.header { font: 600 14px "Segoe UI", Ubuntu, Sans-Serif; fill: #ff5555; }
.text { font: 400 12px monospace; fill: #f85149; }
</style>`)
	fmt.Fprintf(&b, `<rect width="400" height="%d" fill="%s" rx="6" stroke="%s"/>`,
		height, colorBackground, colorBorder)
	fmt.Fprintf(&b, `<text x="20" y="30" class="header">Error: %s</text>`, Escape(title))
	for i, line := range lines {
		fmt.Fprintf(&b, `<text x="20" y="%d" class="text">%s</text>`, 60+i*20, Escape(line))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// barRow renders one labeled horizontal bar. fraction is the fill ratio
// in [0, 1]; labels to the left of the bar, value to the right.
func barRow(name string, fraction float64, barWidth int, color, value string, labelWidth int) string {
	const barH = 12

	w := fraction * float64(barWidth)
	if w < 2 {
		w = 2
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<text x="0" y="%d" class="stat-name">%s</text>`, barH-2, Escape(name))
	fmt.Fprintf(&b, `<rect x="%d" y="0" width="%d" height="%d" rx="3" fill="%s"/>`,
		labelWidth, barWidth, barH, colorBarTrack)
	fmt.Fprintf(&b, `<rect x="%d" y="0" width="%.1f" height="%d" rx="3" fill="%s"/>`,
		labelWidth, w, barH, color)
	fmt.Fprintf(&b, `<text x="%d" y="%d" class="stat-value">%s</text>`,
		labelWidth+barWidth+10, barH-2, Escape(value))
	return b.String()
}

// group wraps content in a translated <g>.
func group(x, y int, content string) string {
	return fmt.Sprintf(`<g transform="translate(%d,%d)">%s</g>`, x, y, content)
}

// colorOr returns color, or the fallback accent when empty.
func colorOr(color string) string {
	if color == "" {
		return colorFallback
	}
	return color
}
