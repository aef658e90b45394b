package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"elnino/internal/fixpoint"
)

type progressModel struct {
	title   string
	events  <-chan fixpoint.Event
	spinner spinner.Model
	prog    progress.Model
	stages  []stageItem
	index   map[fixpoint.Stage]int
	last    string // last defined type
	passes  []int  // resolved count after each pass
	width   int
	done    bool
}

type stageItem struct {
	stage    fixpoint.Stage
	status   string
	resolved int
	total    int
	pass     int
}

type eventMsg fixpoint.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders scheduler progress.
func NewProgressModel(title string, events <-chan fixpoint.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	stages := []stageItem{
		{stage: fixpoint.StageEnums, status: "queued"},
		{stage: fixpoint.StageAggregates, status: "queued"},
	}
	index := make(map[fixpoint.Stage]int, len(stages))
	for i, s := range stages {
		index[s.stage] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		stages:  stages,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(fixpoint.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, item := range m.stages {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := fmt.Sprintf("  %s %-10s %d/%d", statusStyled, item.stage, item.resolved, item.total)
		if item.pass > 0 {
			line += fmt.Sprintf("  pass %d", item.pass)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.passes) > 0 {
		parts := make([]string, len(m.passes))
		for i, n := range m.passes {
			parts[i] = fmt.Sprintf("%d", n)
		}
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("  per pass: " + strings.Join(parts, " → ")))
		b.WriteString("\n")
	}
	if m.last != "" && !m.done {
		b.WriteString("  " + truncate("defined "+m.last, m.width-4))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev fixpoint.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	item := &m.stages[idx]
	if label := statusLabel(ev); label != "" {
		item.status = label
	}
	if ev.Total > 0 {
		item.total = ev.Total
	}
	item.resolved = ev.Resolved
	if ev.Pass > 0 {
		if ev.Pass > item.pass && item.pass > 0 {
			m.passes = append(m.passes, item.resolved)
		}
		item.pass = ev.Pass
	}
	if ev.Status == fixpoint.StatusDefined {
		m.last = ev.Name
	}

	var done, total int
	for _, s := range m.stages {
		done += s.resolved
		total += s.total
		if s.status == "done" || s.status == "error" {
			done += s.total - s.resolved
		}
	}
	if total == 0 {
		return nil
	}
	return m.prog.SetPercent(float64(done) / float64(total))
}

func statusLabel(ev fixpoint.Event) string {
	switch ev.Status {
	case fixpoint.StatusDone:
		return "done"
	case fixpoint.StatusError:
		return "error"
	case fixpoint.StatusWorking, fixpoint.StatusDefined:
		return "resolving"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "resolving":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
