package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voicecal/internal/layout"
)

const cellWidth = 16

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Width(cellWidth).Inline(true)
	dayStyle     = lipgloss.NewStyle().Width(cellWidth).Inline(true)
	outDayStyle  = dayStyle.Faint(true)
	todayStyle   = dayStyle.Reverse(true)
	emptyStyle   = lipgloss.NewStyle().Width(cellWidth).Inline(true)
	barBaseStyle = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("#ffffff"))
	ruleStyle    = lipgloss.NewStyle().Faint(true)
)

// Text renders view as a fixed-width grid: one line of day numbers per week
// followed by one line per layer.
func Text(view layout.MonthView, opts Options) string {
	data := buildMonth(view, opts)

	var b strings.Builder
	b.WriteString(titleStyle.Render(data.Title))
	b.WriteString("\n")

	headers := make([]string, 0, layout.DaysPerWeek)
	for _, wd := range data.Weekdays {
		headers = append(headers, headerStyle.Render(wd))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")
	rule := ruleStyle.Render(strings.Repeat("─", cellWidth*layout.DaysPerWeek))

	for _, row := range data.Rows {
		b.WriteString(rule)
		b.WriteString("\n")

		days := make([]string, 0, layout.DaysPerWeek)
		for _, c := range row.Cells {
			style := dayStyle
			switch {
			case c.Today:
				style = todayStyle
			case !c.InMonth:
				style = outDayStyle
			}
			days = append(days, style.Render(strconv.Itoa(c.Day)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, days...))
		b.WriteString("\n")

		for layer := 0; layer < row.Layers; layer++ {
			b.WriteString(layerLine(row.Bars, layer))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func layerLine(bars []barData, layer int) string {
	var byCol [layout.DaysPerWeek]*barData
	for i := range bars {
		if bars[i].Layer == layer && bars[i].startCol >= 0 && bars[i].startCol < layout.DaysPerWeek {
			byCol[bars[i].startCol] = &bars[i]
		}
	}

	segs := make([]string, 0, layout.DaysPerWeek)
	for col := 0; col < layout.DaysPerWeek; {
		bar := byCol[col]
		if bar == nil {
			segs = append(segs, emptyStyle.Render(""))
			col++
			continue
		}
		span := bar.Span
		if col+span > layout.DaysPerWeek {
			span = layout.DaysPerWeek - col
		}
		width := span * cellWidth
		segs = append(segs, barBaseStyle.
			Background(lipgloss.Color(bar.Color)).
			Width(width).
			MaxWidth(width).
			Render(barLabel(*bar)))
		col += span
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segs...)
}

func barLabel(b barData) string {
	var parts []string
	if b.Before {
		parts = append(parts, "‹")
	}
	if b.Time != "" {
		parts = append(parts, b.Time)
	}
	label := b.Title
	if b.After {
		label += " ›"
	}
	parts = append(parts, label)
	return strings.Join(parts, " ")
}
