package svg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitcards/git-cards/internal/lang"
	"github.com/gitcards/git-cards/internal/rank"
)

// Identifier card layout.
const (
	idRowHeight   = 20
	idBarWidth    = 200
	idLabelWidth  = 110
	legendColW    = 140
	legendRowH    = 18
	emptyBodyNote = "No identifiers found."
)

// IdentifiersCard renders the full code-identifiers card: ranked bars,
// language legend, and the scan meta line.
func IdentifiersCard(username string, items []rank.Item, langFiles map[string]int, repoCount, fileCount, width int) string {
	width = ClampWidth(width)
	body, height := identifiersBody(items, langFiles, repoCount, fileCount, width)
	title := fmt.Sprintf("%s's Top Identifiers", username)
	return Frame(title, body, width, height)
}

func identifiersBody(items []rank.Item, langFiles map[string]int, repoCount, fileCount, width int) (string, int) {
	var parts []string
	var bodyHeight int

	if len(items) == 0 {
		parts = append(parts, fmt.Sprintf(`<text x="%d" y="20" class="stat-value">%s</text>`, Padding, emptyBodyNote))
		bodyHeight = 40
	} else {
		maxCount := items[0].Count
		for _, it := range items {
			if it.Count > maxCount {
				maxCount = it.Count
			}
		}

		for i, it := range items {
			y := 10 + i*idRowHeight
			fraction := float64(it.Count) / float64(maxCount)
			row := barRow(it.Name, fraction, idBarWidth, colorOr(lang.Color(it.Dominant)),
				fmt.Sprintf("%d", it.Count), idLabelWidth)
			parts = append(parts, group(Padding, y, row))
		}
		bodyHeight = len(items)*idRowHeight + 10
	}

	legend, legendHeight := renderLegend(langFiles, bodyHeight+10, width)
	if legend != "" {
		parts = append(parts, legend)
	}

	metaY := bodyHeight + legendHeight + 25
	parts = append(parts, fmt.Sprintf(`<text x="%d" y="%d" class="stat-value">%d repos &#8226; %d files scanned</text>`,
		Padding, metaY, repoCount, fileCount))

	return strings.Join(parts, "\n"), metaY + 10
}

// renderLegend lays out per-language file counts as a swatch grid below
// the bars. Returns empty when there is nothing to show.
func renderLegend(langFiles map[string]int, yOffset, width int) (string, int) {
	if len(langFiles) == 0 {
		return "", 0
	}

	type legendItem struct {
		key   string
		count int
	}
	items := make([]legendItem, 0, len(langFiles))
	for k, c := range langFiles {
		items = append(items, legendItem{key: k, count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].key < items[j].key
	})

	perRow := (width - 2*Padding) / legendColW
	if perRow < 1 {
		perRow = 1
	}
	rows := (len(items) + perRow - 1) / perRow

	parts := []string{
		fmt.Sprintf(`<text x="%d" y="%d" class="stat-name">Legend</text>`, Padding, yOffset),
	}
	for idx, it := range items {
		col := idx % perRow
		row := idx / perRow
		x := Padding + col*legendColW
		y := yOffset + 12 + row*legendRowH

		display := it.key
		if p, ok := lang.ByKey(it.key); ok {
			display = p.DisplayName
		}

		swatch := fmt.Sprintf(`<rect x="0" y="-10" width="12" height="12" rx="2" fill="%s"/>`,
			colorOr(lang.Color(it.key)))
		label := fmt.Sprintf(`<text x="18" y="0" class="stat-value">%s (%d)</text>`,
			Escape(display), it.count)
		parts = append(parts, group(x, y, swatch+label))
	}

	return strings.Join(parts, "\n"), rows*legendRowH + 18
}
