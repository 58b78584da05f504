package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
)

const (
	stateList = iota
	stateDetail
)

// Browser is an interactive view over the results of one FitAll call.
type Browser struct {
	state, cursor int
	title         string
	data          dataset.Dataset
	ranked        []*fitting.Result
	best          string
	width, height int
}

func NewBrowser(title string, d dataset.Dataset, results map[string]*fitting.Result, best string) *Browser {
	return &Browser{
		state:  stateList,
		title:  title,
		data:   d,
		ranked: fitting.Ranked(results),
		best:   best,
		width:  80, height: 24,
	}
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.state {
	case stateList:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.ranked)-1 {
				m.cursor++
			}
		case "enter", " ":
			if len(m.ranked) > 0 {
				m.state = stateDetail
			}
		}
	case stateDetail:
		switch msg.String() {
		case "esc", "backspace", "h":
			m.state = stateList
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.ranked)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// Current is the result under the cursor, nil when there are none.
func (m Browser) Current() *fitting.Result {
	if len(m.ranked) == 0 {
		return nil
	}
	return m.ranked[m.cursor]
}

func (m Browser) View() string {
	if m.state == stateDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m Browser) viewList() string {
	var b strings.Builder
	b.WriteString("\n    " + Title.Render(strings.ToUpper(m.title)) + "\n    " + Subtle.Render(fmt.Sprintf("%d points, %d models", m.data.Len(), len(m.ranked))) + "\n    " + Subtle.Render("─────────────────────────") + "\n\n")

	for i, r := range m.ranked {
		name := r.Model
		if name == m.best {
			name += " ★"
		}
		var score string
		if r.OK() {
			score = QualityBar(r.RSquared, 20) + " " + fmt.Sprintf("%.6f", r.RSquared)
		} else {
			score = Failure.Render("failed")
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", Title.Render("▸"), Selected.Render(fmt.Sprintf("%-22s", name)), score))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", Subtle.Render(fmt.Sprintf("%-22s", name)), score))
		}
	}

	b.WriteString("\n    " + keys("j/k", "navigate", "enter", "inspect", "q", "quit") + "\n")
	return b.String()
}

func (m Browser) viewDetail() string {
	r := m.Current()
	var b strings.Builder
	b.WriteString("\n" + HeaderStyle.Render(r.Model) + "\n\n")

	model, known := fitting.ModelByName(r.Model)
	switch {
	case !r.OK():
		b.WriteString(Failure.Render(r.Err.Error()) + "\n")
	case !known:
		b.WriteString(MetricLabel.Render("r²   ") + MetricValue.Render(fmt.Sprintf("%.6f", r.RSquared)) + "\n")
	default:
		b.WriteString(MetricLabel.Render("form ") + MetricValue.Render(model.Formula) + "\n")
		b.WriteString(MetricLabel.Render("fit  ") + MetricValue.Render(formatParams(model.Params, r.Params)) + "\n")
		b.WriteString(MetricLabel.Render("r²   ") + MetricValue.Render(fmt.Sprintf("%.6f", r.RSquared)))
		b.WriteString(MetricLabel.Render("   rmse ") + MetricValue.Render(fmt.Sprintf("%.4g", fitting.RMSE(model, r.Params, m.data))) + "\n")
		b.WriteString(MetricLabel.Render(fmt.Sprintf("solved in %d iterations, %s", r.Iterations, r.Duration)) + "\n\n")
		b.WriteString(ScatterFit(m.data, model, r.Params, max(min(m.width-4, 60), 10), 12))
		b.WriteString(MetricLabel.Render("residuals ") + Sparkline(Residuals(m.data, model, r.Params), 40) + "\n")
	}

	b.WriteString("\n" + keys("j/k", "next model", "esc", "back", "q", "quit") + "\n")
	return b.String()
}

func keys(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, KeyHint.Render(pairs[i])+" "+Subtle.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}

// RunBrowser opens the fit browser full screen until the user quits.
func RunBrowser(title string, d dataset.Dataset, results map[string]*fitting.Result, best string) error {
	_, err := tea.NewProgram(NewBrowser(title, d, results, best), tea.WithAltScreen()).Run()
	return err
}
