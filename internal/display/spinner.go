package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CompletionInfo describes a completed category refresh.
type CompletionInfo struct {
	Category string
	Success  bool
	Skipped  bool
	Error    string
}

// SpinnerShouldShow returns true if the spinner should be displayed.
// The spinner is hidden for quiet mode, JSON output, or non-TTY (piped) output.
func SpinnerShouldShow(quiet, json, nonTTY bool) bool {
	return !quiet && !json && !nonTTY
}

// SpinnerRun starts a spinner tracking the given categories. It calls
// refreshFn, passing a callback that refreshFn should invoke when each
// category completes. SpinnerRun blocks until all categories finish.
func SpinnerRun(categories []string, refreshFn func(onComplete func(CompletionInfo))) error {
	if len(categories) == 0 {
		refreshFn(func(CompletionInfo) {})
		return nil
	}

	m := newSpinnerModel(categories)
	p := tea.NewProgram(m)

	done := make(chan struct{})
	go func() {
		refreshFn(func(info CompletionInfo) {
			p.Send(spinnerCompletionMsg(info))
		})
		close(done)
	}()

	_, err := p.Run()
	<-done
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return nil
}

// spinnerCompletionMsg is sent to the model when a category refresh completes.
type spinnerCompletionMsg CompletionInfo

type spinnerModel struct {
	spinner     spinner.Model
	categories  []string
	inflight    []string
	completions map[string]CompletionInfo
	quitting    bool
}

var (
	spinnerCheckStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	spinnerSkipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	spinnerErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newSpinnerModel(categories []string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	all := make([]string, len(categories))
	copy(all, categories)

	inflight := make([]string, len(categories))
	copy(inflight, categories)

	return spinnerModel{
		spinner:     s,
		categories:  all,
		inflight:    inflight,
		completions: make(map[string]CompletionInfo),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerCompletionMsg:
		info := CompletionInfo(msg)

		// Ignore duplicates
		if !m.isInflight(info.Category) {
			return m, nil
		}

		m.completions[info.Category] = info
		m.inflight = removeStringFromSlice(m.inflight, info.Category)

		if len(m.inflight) == 0 {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m spinnerModel) View() string {
	// When done, return empty: the spinner is transient progress UI
	if m.quitting {
		return ""
	}

	var b strings.Builder

	for i, cat := range m.categories {
		if i > 0 {
			b.WriteString("\n")
		}

		if c, done := m.completions[cat]; done {
			switch {
			case c.Skipped:
				b.WriteString(spinnerSkipStyle.Render("−"))
			case c.Success:
				b.WriteString(spinnerCheckStyle.Render("✓"))
			default:
				b.WriteString(spinnerErrStyle.Render("✗"))
			}
			b.WriteString(" ")
			b.WriteString(c.Category)
		} else {
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
			b.WriteString(cat)
		}
	}

	return b.String()
}

func (m spinnerModel) isInflight(category string) bool {
	for _, cat := range m.inflight {
		if cat == category {
			return true
		}
	}
	return false
}

func removeStringFromSlice(slice []string, s string) []string {
	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if item != s {
			result = append(result, item)
		}
	}
	return result
}
