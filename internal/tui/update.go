package tui

import (
	"capdissect/internal/analysis"
	"capdissect/internal/pipeline"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const tableRows = 10

func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case TickMsg:
		if m.done {
			return m, nil
		}
		m.now = time.Time(msg)
		return m, tickCmd()

	case SnapshotMsg:
		m.snap = pipeline.Snapshot(msg)
		m.hosts.SetRows(tallyRows(msg.Hosts))
		m.aps.SetRows(tallyRows(msg.APs))
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Result != nil {
			m.snap.Packets = msg.Result.Packets
			if msg.Result.Traffic != nil {
				m.snap.HTTPPackets = msg.Result.Traffic.HTTPPackets
				m.hosts.SetRows(tallyRows(msg.Result.Traffic.Hosts))
			}
			if msg.Result.Wireless != nil {
				m.aps.SetRows(tallyRows(msg.Result.Wireless.APs))
			}
		}
		return m, nil
	}

	m.hosts, cmd = m.hosts.Update(msg)
	return m, cmd
}

func tallyRows(t *analysis.Tally) []table.Row {
	if t == nil {
		return nil
	}
	top := t.Top(tableRows)
	rows := make([]table.Row, len(top))
	for i, e := range top {
		rows[i] = table.Row{e.Key, fmt.Sprintf("%d", e.Count)}
	}
	return rows
}
