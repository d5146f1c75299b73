package tui

import (
	"capdissect/internal/pipeline"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TickMsg redraws the elapsed time between snapshots.
type TickMsg time.Time

// SnapshotMsg carries a progress snapshot from the pipeline goroutine.
type SnapshotMsg pipeline.Snapshot

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Result *pipeline.Result
	Err    error
}

// RunModel is the live view of one pipeline run.
type RunModel struct {
	capture string
	runID   string
	started time.Time
	now     time.Time

	snap  pipeline.Snapshot
	hosts table.Model
	aps   table.Model

	done   bool
	err    error
	cancel func()
}

func newTable(keyTitle string) table.Model {
	columns := []table.Column{
		{Title: keyTitle, Width: 32},
		{Title: "Packets", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// NewRunModel creates the live view. cancel is called when the user quits before the
// run has finished.
func NewRunModel(capture, runID string, cancel func()) RunModel {
	now := time.Now()
	return RunModel{
		capture: capture,
		runID:   runID,
		started: now,
		now:     now,
		hosts:   newTable("Host"),
		aps:     newTable("SSID"),
		cancel:  cancel,
	}
}

// Progress returns a pipeline progress hook that forwards snapshots to p.
func Progress(p *tea.Program) pipeline.ProgressFunc {
	return func(s pipeline.Snapshot) {
		p.Send(SnapshotMsg(s))
	}
}

func (m RunModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
