package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mvnfetch/pkg/coord"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// VersionListModel - Interactive version selection
// =============================================================================

// VersionListModel is the bubbletea model for picking one published version.
// Versions are shown in the order given; Selected is empty when the user
// quits without choosing.
type VersionListModel struct {
	Artifact coord.Coordinate
	Versions []string
	Release  string
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewVersionListModel creates a new version list model.
func NewVersionListModel(ga coord.Coordinate, versions []string, release string) VersionListModel {
	return VersionListModel{
		Artifact: ga,
		Versions: versions,
		Release:  release,
		Height:   15,
	}
}

func (m VersionListModel) Init() tea.Cmd {
	return nil
}

func (m VersionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Versions)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Versions) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Versions[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m VersionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select " + m.Artifact.GA() + " version"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Versions))
	for i := m.Offset; i < end; i++ {
		v := m.Versions[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := cursor + v
		if v == m.Release {
			line += " " + StyleSuccess.Render("(release)")
		}

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Versions))))

	return b.String()
}
