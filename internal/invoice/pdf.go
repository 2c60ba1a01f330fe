package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"rsc.io/pdf"
)

var ErrUnreadablePDF = errors.New("could not read PDF")

// glyphs whose baselines differ by less than this share a line
const lineTolerance = 2.0

type textLine struct {
	y     float64
	texts []pdf.Text
}

// ExtractText returns the text of every page, one output line per visual line,
// top to bottom. Runs are joined with a space when the horizontal gap is wider than
// a fraction of the font size.
func ExtractText(data []byte) (text string, err error) {
	// rsc.io/pdf panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range groupLines(page.Content().Text) {
			sb.WriteString(joinLine(line.texts))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func groupLines(texts []pdf.Text) []textLine {
	var lines []textLine
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-t.Y) < lineTolerance {
				lines[i].texts = append(lines[i].texts, t)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, textLine{y: t.Y, texts: []pdf.Text{t}})
		}
	}

	// PDF y grows upwards
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	for i := range lines {
		sort.SliceStable(lines[i].texts, func(a, b int) bool { return lines[i].texts[a].X < lines[i].texts[b].X })
	}
	return lines
}

func joinLine(texts []pdf.Text) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > prev.FontSize*0.2 && !strings.HasSuffix(sb.String(), " ") && t.S != " " {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
