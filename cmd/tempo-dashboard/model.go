package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/billie-coop/tempo/internal/csync"
	"github.com/charmbracelet/bubbles/v2/progress"
	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// jobStartedMsg reports that a synthetic job was admitted.
type jobStartedMsg struct {
	id       uint64
	priority int
}

// jobFinishedMsg reports that a synthetic job returned.
type jobFinishedMsg struct {
	id       uint64
	priority int
	err      error
	took     time.Duration
}

// workloadDoneMsg reports that every synthetic job has been submitted and
// resolved.
type workloadDoneMsg struct{}

type tickMsg time.Time

// event is one line of the dashboard's recent-activity log.
type event struct {
	at   time.Time
	text string
	fail bool
}

// model is the tempo-dashboard's Bubble Tea model: a live view of a Limiter
// driving a synthetic workload.
type model struct {
	label string

	pending       int
	inFlight      int
	maxConcurrent int
	admitted      int
	failed        int

	spin spinner.Model
	pace progress.Model

	events      *csync.Slice[event]
	pollPending func() int
	done        bool

	quitting bool
}

func newModel(label string, maxConcurrent int, events *csync.Slice[event], pollPending func() int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(progress.WithDefaultGradient())

	return model{
		label:         label,
		maxConcurrent: maxConcurrent,
		spin:          s,
		pace:          p,
		events:        events,
		pollPending:   pollPending,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickEvery())
}

func tickEvery() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		if m.pollPending != nil {
			m.pending = m.pollPending()
		}
		return m, tickEvery()

	case jobStartedMsg:
		m.inFlight++
		m.admitted++
		return m, nil

	case jobFinishedMsg:
		m.inFlight--
		if msg.err != nil {
			m.failed++
		}
		return m, nil

	case workloadDoneMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("tempo-dashboard: " + m.label))
	b.WriteString("\n\n")

	frac := 0.0
	if m.maxConcurrent > 0 {
		frac = float64(m.inFlight) / float64(m.maxConcurrent)
	}
	fmt.Fprintf(&b, "%s %s  in-flight %d/%d\n",
		m.spin.View(), m.pace.ViewAs(frac), m.inFlight, m.maxConcurrent)

	fmt.Fprintf(&b, "%s queued=%d admitted=%d failed=%d\n",
		labelStyle.Render("status"), m.pending, m.admitted, m.failed)

	b.WriteString("\n")
	for _, e := range m.events.ToSlice() {
		style := okStyle
		if e.fail {
			style = errStyle
		}
		b.WriteString(style.Render(e.text))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("workload complete — press q to exit"))
		b.WriteString("\n")
	}

	return b.String()
}
