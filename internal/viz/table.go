package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/linearize"
)

// FitTable lists every model result in ranked order with its parameters,
// R² and RMSE against d. The best model is marked with a star.
func FitTable(results map[string]*fitting.Result, best string, d dataset.Dataset) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("", "model", "r²", "rmse", "parameters")

	for _, r := range fitting.Ranked(results) {
		mark := ""
		if r.Model == best {
			mark = "★"
		}
		if !r.OK() {
			t.Row(mark, r.Model, "-", "-", "failed: "+r.Err.Error())
			continue
		}
		rmse := "-"
		params := formatParams(nil, r.Params)
		if m, ok := fitting.ModelByName(r.Model); ok {
			rmse = fmt.Sprintf("%.4g", fitting.RMSE(m, r.Params, d))
			params = formatParams(m.Params, r.Params)
		}
		t.Row(mark, r.Model, fmt.Sprintf("%.6f", r.RSquared), rmse, params)
	}
	return t.String()
}

func formatParams(names []string, values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if i < len(names) {
			parts[i] = fmt.Sprintf("%s=%.4g", names[i], v)
		} else {
			parts[i] = fmt.Sprintf("%.4g", v)
		}
	}
	return strings.Join(parts, " ")
}

// LinearizationPanel summarises how to plot a law as a straight line.
func LinearizationPanel(res *linearize.Result) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-11s", label)) + " " + MetricValue.Render(value) + "\n")
	}

	row("plot", res.Form)
	row("x axis", res.XTransform.Title(res.X)+"  ("+res.XTransform.String()+")")
	row("y axis", res.YTransform.Title(res.Y)+"  ("+res.YTransform.String()+")")
	row("gradient", meaning(res.GradientExpr, res.GradientMeaning))
	row("intercept", meaning(res.InterceptExpr, res.InterceptMeaning))
	if res.Target != "" {
		if res.TargetSolution != "" {
			row("solve", res.TargetSolution)
		} else {
			row("solve", res.Target+" not recoverable from the line")
		}
	}
	b.WriteString(Subtle.Render(fmt.Sprintf("strategy %s, score %g", res.Strategy, res.Score)))

	title := "Linearization"
	if res.Equation != "" {
		title = res.Equation
	}
	return BoxWithTitle(title, b.String(), 60)
}

func meaning(expr, canonical string) string {
	if canonical == "" || canonical == expr {
		return expr
	}
	return expr + "  [" + canonical + "]"
}

// DataTable lists the points of d with their uncertainties.
func DataTable(d dataset.Dataset) string {
	headers := []string{d.X.Title, d.Y.Title}
	if d.X.HasUncertainty() {
		headers = append(headers, "δ"+d.X.Title)
	}
	if d.Y.HasUncertainty() {
		headers = append(headers, "δ"+d.Y.Title)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Subtle).
		Headers(headers...)

	for i := 0; i < d.Len(); i++ {
		row := []string{fmt.Sprintf("%.6g", d.X.Values[i]), fmt.Sprintf("%.6g", d.Y.Values[i])}
		if d.X.HasUncertainty() {
			row = append(row, fmt.Sprintf("%.3g", d.X.Uncertainties[i]))
		}
		if d.Y.HasUncertainty() {
			row = append(row, fmt.Sprintf("%.3g", d.Y.Uncertainties[i]))
		}
		t.Row(row...)
	}
	return t.String()
}
