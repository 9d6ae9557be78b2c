package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	stageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render
)

// StageMsg reports that the pipeline moved into a new stage.
type StageMsg struct {
	Stage   string
	Message string
}

// CopyMsg reports snapshot copy progress. Percent is 0..100.
type CopyMsg struct {
	Message string
	Percent float64
}

// DoneMsg ends the program, carrying the pipeline error if any.
type DoneMsg struct {
	Err error
}

// MigrationModel renders the live state of a running migration: the
// current stage, and a progress bar while snapshots are copying.
type MigrationModel struct {
	progress progress.Model
	stage    string
	message  string
	percent  float64
	copying  bool
	err      error
}

// NewMigrationModel creates a model for one migration run.
func NewMigrationModel() MigrationModel {
	return MigrationModel{
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init initializes the model
func (m MigrationModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m MigrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		return m, nil
	case StageMsg:
		m.stage = msg.Stage
		m.message = msg.Message
		m.copying = false
		m.percent = 0
		return m, nil
	case CopyMsg:
		m.message = msg.Message
		m.percent = msg.Percent
		m.copying = true
		return m, nil
	case DoneMsg:
		m.err = msg.Err
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View renders the current stage and copy progress
func (m MigrationModel) View() string {
	pad := strings.Repeat(" ", 2)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(pad + stageStyle.Render(m.stage) + "\n")
	if m.copying {
		sb.WriteString(pad + m.progress.ViewAs(m.percent/100) + "\n")
	}
	sb.WriteString(pad + helpStyle(m.message) + "\n")
	return sb.String()
}

// SimpleProgress displays a simple text-based progress indicator
func SimpleProgress(current, total int, message string) string {
	percent := float64(current) / float64(total) * 100
	bar := "["
	filled := int(percent / 5)
	for i := 0; i < 20; i++ {
		if i < filled {
			bar += "="
		} else {
			bar += " "
		}
	}
	bar += "]"
	return fmt.Sprintf("%s %s %.0f%% (%d/%d)", message, bar, percent, current, total)
}
