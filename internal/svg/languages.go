package svg

import (
	"fmt"
	"strings"
)

// LangStat is one row of the language-usage card.
type LangStat struct {
	// Name is the display name GitHub reports, e.g. "TypeScript".
	Name string

	// Percent is the share of total bytes, already rounded.
	Percent float64

	// Label is the right-hand text for the selected mode.
	Label string

	// Color is the bar color, empty for the fallback accent.
	Color string
}

// Language card layout.
const (
	langRowHeight  = 20
	langBarWidth   = 200
	langLabelWidth = 100
)

// LanguagesCard renders the full language-usage card.
func LanguagesCard(username string, stats []LangStat, width int) string {
	width = ClampWidth(width)
	body, height := languagesBody(stats)
	title := fmt.Sprintf("%s's Top Languages", username)
	return Frame(title, body, width, height)
}

func languagesBody(stats []LangStat) (string, int) {
	if len(stats) == 0 {
		return fmt.Sprintf(`<text x="%d" y="20" class="stat-value">No language data found.</text>`, Padding), 40
	}

	var parts []string
	for i, st := range stats {
		y := 10 + i*langRowHeight
		row := barRow(st.Name, st.Percent/100, langBarWidth, colorOr(st.Color), st.Label, langLabelWidth)
		parts = append(parts, group(Padding, y, row))
	}

	return strings.Join(parts, "\n"), len(stats)*langRowHeight + 10
}
