package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9534F")).Bold(true)
)

func (m RunModel) View() string {
	headerText := fmt.Sprintf("capdissect - %s", m.capture)
	if m.runID != "" {
		headerText += fmt.Sprintf(" [run %s]", m.runID)
	}
	title := titleStyle.Render(headerText)

	elapsed := m.now.Sub(m.started)
	if m.snap.Elapsed > elapsed {
		elapsed = m.snap.Elapsed
	}
	rate := 0.0
	if elapsed > 0 {
		rate = float64(m.snap.Packets) / elapsed.Seconds()
	}
	stats := fmt.Sprintf("Packets: %d\nElapsed: %s\nRate: %.1f packets/sec\nHTTP packets: %d",
		m.snap.Packets, elapsed.Round(time.Millisecond), rate, m.snap.HTTPPackets)
	statsBox := infoStyle.Render(stats)

	hostsBox := infoStyle.Render("Hosts\n" + m.hosts.View())
	apsBox := infoStyle.Render("Access Points\n" + m.aps.View())

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, statsBox, apsBox)
	body := lipgloss.JoinVertical(lipgloss.Left, title, row1, hostsBox)

	switch {
	case m.err != nil:
		return body + "\n" + errStyle.Render("Error: "+m.err.Error()) + "\nPress q to quit."
	case m.done:
		return body + "\nDone. Press q to quit."
	}
	return body + "\nPress q to quit."
}
