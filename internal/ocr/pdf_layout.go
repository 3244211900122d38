package ocr

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is how far apart (in points) two glyph baselines may be and
// still sit on one line.
const rowTolerance = 2.0

type glyphRow struct {
	y      float64
	glyphs []pdf.Text
}

// pageLines rebuilds the reading order of one page from positioned glyphs:
// rows top to bottom, glyphs left to right, one line per row.
func pageLines(p pdf.Page) string {
	rows := groupRows(p.Content().Text)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if line := rowText(r.glyphs); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func groupRows(glyphs []pdf.Text) []*glyphRow {
	var rows []*glyphRow
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		var dst *glyphRow
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= rowTolerance {
				dst = r
				break
			}
		}
		if dst == nil {
			dst = &glyphRow{y: g.Y}
			rows = append(rows, dst)
		}
		dst.glyphs = append(dst.glyphs, g)
	}
	// PDF y grows upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}

// rowText joins a row's glyphs. A horizontal gap wider than a fraction of the
// font size between two glyphs becomes a space. Glyphs with no width metrics
// share an x and keep their content-stream order.
func rowText(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var b strings.Builder
	var end float64
	for i, g := range glyphs {
		if i > 0 && g.X-end > wordGap(g) {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		if e := g.X + g.W; i == 0 || e > end {
			end = e
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func wordGap(g pdf.Text) float64 {
	if g.FontSize <= 0 {
		return 1
	}
	return 0.25 * g.FontSize
}
