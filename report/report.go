// Package report prints evaluated covered calls as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"optionflow/models"
	"optionflow/strategy"
)

type Options struct {
	Title       string
	Precision   int32
	PerContract bool
	// Limit caps the number of rows; zero prints every evaluation.
	Limit int
}

type column struct {
	title string
	width int
	left  bool
}

var evaluationColumns = []column{
	{title: "#", width: 4},
	{title: "SYMBOL", width: 18, left: true},
	{title: "UNDERLYING", width: 12, left: true},
	{title: "STRIKE", width: 12},
	{title: "MAX PROFIT", width: 14},
	{title: "MAX LOSS", width: 14},
	{title: "BREAK EVEN", width: 14},
	{title: "CURRENT", width: 14},
}

var scenarioColumns = []column{
	{title: "SETTLEMENT", width: 14},
	{title: "CALL LEG", width: 14},
	{title: "UNDERLYING LEG", width: 16},
	{title: "TOTAL", width: 14},
}

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	footer   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1),
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")),
		cell: r.NewStyle(),
		positive: r.NewStyle().
			Foreground(lipgloss.Color("#10B981")),
		negative: r.NewStyle().
			Foreground(lipgloss.Color("#EF4444")),
		footer: r.NewStyle().
			Foreground(lipgloss.Color("#6B7280")),
	}
}

// FormatValue rounds v half away from zero to precision decimals. NaN and
// infinities are printed as such.
func FormatValue(v float64, precision int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	if precision < 0 {
		precision = 0
	}
	return decimal.NewFromFloat(v).StringFixed(precision)
}

func (s styles) render(col column, text string, style lipgloss.Style) string {
	style = style.Width(col.width)
	if col.left {
		style = style.Align(lipgloss.Left)
	} else {
		style = style.Align(lipgloss.Right)
	}
	return style.Render(text)
}

func (s styles) value(col column, v float64, precision int32) string {
	style := s.cell
	if v > 0 {
		style = s.positive
	} else if v < 0 {
		style = s.negative
	}
	return s.render(col, FormatValue(v, precision), style)
}

func (s styles) headerRow(cols []column) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = s.render(c, c.title, s.header)
	}
	return strings.Join(cells, " ")
}

// Render writes one row per evaluation in the given order.
func Render(w io.Writer, evals []models.Evaluation, opts Options) error {
	s := newStyles(w)

	title := opts.Title
	if title == "" {
		title = "Covered calls"
	}
	if opts.PerContract {
		title += " (per contract)"
	}

	var b strings.Builder
	b.WriteString(s.title.Render(title))
	b.WriteString("\n")
	b.WriteString(s.headerRow(evaluationColumns))
	b.WriteString("\n")

	rows := evals
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	for i, e := range rows {
		result := e.Result
		if opts.PerContract {
			result = result.Scaled(e.ContractSize)
		}
		cells := []string{
			s.render(evaluationColumns[0], fmt.Sprintf("%d", i+1), s.cell),
			s.render(evaluationColumns[1], e.Symbol, s.cell),
			s.render(evaluationColumns[2], e.Underlying, s.cell),
			s.render(evaluationColumns[3], FormatValue(e.Strike, opts.Precision), s.cell),
			s.value(evaluationColumns[4], result.MaxPotProfit, opts.Precision),
			s.value(evaluationColumns[5], result.MaxPotLoss, opts.Precision),
			s.render(evaluationColumns[6], FormatValue(result.BreakEven, opts.Precision), s.cell),
			s.value(evaluationColumns[7], result.CurrentProfit, opts.Precision),
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}

	b.WriteString(s.footer.Render(fmt.Sprintf("%d of %d evaluations", len(rows), len(evals))))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderScenarios writes the settlement table of one covered call.
func RenderScenarios(w io.Writer, call models.Option, scenarios []strategy.Scenario, precision int32) error {
	s := newStyles(w)

	var b strings.Builder
	b.WriteString(s.title.Render(fmt.Sprintf("%s at expiry (strike %s)", call.Symbol, FormatValue(call.K, precision))))
	b.WriteString("\n")
	b.WriteString(s.headerRow(scenarioColumns))
	b.WriteString("\n")

	for _, sc := range scenarios {
		cells := []string{
			s.render(scenarioColumns[0], FormatValue(sc.Settlement, precision), s.cell),
			s.value(scenarioColumns[1], sc.CallLeg, precision),
			s.value(scenarioColumns[2], sc.UnderlyingLeg, precision),
			s.value(scenarioColumns[3], sc.Total, precision),
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
