package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tensorc/internal/bench"
)

type progressModel struct {
	title      string
	events     <-chan bench.Event
	spinner    spinner.Model
	prog       progress.Model
	workers    []workerItem
	stageLabel string
	growth     string
	width      int
	done       bool
}

type workerItem struct {
	status string
	done   int
	total  int
	note   string
}

type eventMsg bench.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders bench progress,
// one line per worker and an overall bar.
func NewProgressModel(title string, workers int, events <-chan bench.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]workerItem, workers)
	for i := range items {
		items[i].status = "queued"
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		workers: items,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(bench.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
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
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	if m.growth != "" {
		b.WriteString("  " + m.growth + "\n")
	}
	b.WriteString("\n")

	noteWidth := max(m.width-36, 20)
	for i, w := range m.workers {
		status := styleStatus(w.status).Render(fmt.Sprintf("%10s", w.status))
		line := fmt.Sprintf("  %s worker %-3d %8d/%-8d %s", status, i, w.done, w.total, truncate(w.note, noteWidth))
		b.WriteString(strings.TrimRight(line, " "))
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

func (m *progressModel) applyEvent(ev bench.Event) tea.Cmd {
	if ev.Worker < 0 {
		switch ev.Stage {
		case bench.StageGrow:
			m.growth = fmt.Sprintf("registered %d/%d new types", ev.Done, ev.Total)
		default:
			m.stageLabel = stageLabel(ev.Stage, ev.Status)
		}
		return nil
	}
	if ev.Worker >= len(m.workers) {
		return nil
	}
	w := &m.workers[ev.Worker]
	w.status = string(ev.Status)
	w.done, w.total = ev.Done, ev.Total
	if ev.Err != nil {
		w.note = ev.Err.Error()
	} else if ev.Elapsed > 0 {
		w.note = ev.Elapsed.Round(time.Microsecond).String()
	}
	return m.prog.SetPercent(m.fraction())
}

// fraction is the share of invokes completed over all workers.
func (m *progressModel) fraction() float64 {
	var done, total int
	for _, w := range m.workers {
		done += w.done
		total += w.total
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func stageLabel(stage bench.Stage, status bench.Status) string {
	switch status {
	case bench.StatusDone:
		return string(stage) + " done"
	case bench.StatusError:
		return string(stage) + " failed"
	}
	switch stage {
	case bench.StageRegister:
		return "registering"
	case bench.StageDefine:
		return "defining"
	case bench.StageBuild:
		return "building"
	case bench.StageInvoke:
		return "invoking"
	}
	return string(stage)
}

func styleStatus(status string) lipgloss.Style {
	switch bench.Status(status) {
	case bench.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case bench.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case bench.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
