// Package pager shows a rendered listing in a scrollable terminal view.
package pager

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
)

// Model is the bubbletea model of the pager.
type Model struct {
	viewport viewport.Model
	title    string
	blocks   []int // line offsets of "PC 0x" block headers
	current  int   // index into blocks, -1 before the first block
	width    int
	height   int
}

// BlockOffsets returns the line index of every block header in content.
func BlockOffsets(content string) []int {
	var offsets []int
	for i, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "PC 0x") {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// New builds a pager over content.
func New(title, content string) Model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)
	vp.SetContent(strings.TrimSuffix(content, "\n"))

	return Model{
		viewport: vp,
		title:    title,
		blocks:   BlockOffsets(content),
		current:  -1,
		width:    80,
		height:   24,
	}
}

// Run shows the pager until the user quits.
func Run(ctx context.Context, title, content string) error {
	program := tea.NewProgram(
		New(title, content),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("pager: %w", err)
	}
	return nil
}

// Current returns the index of the block last jumped to, or -1.
func (m Model) Current() int {
	return m.current
}

// NextBlock scrolls to the following block header.
func (m Model) NextBlock() Model {
	if m.current+1 < len(m.blocks) {
		m.current++
		m.viewport.SetYOffset(m.blocks[m.current])
	}
	return m
}

// PrevBlock scrolls to the preceding block header.
func (m Model) PrevBlock() Model {
	if m.current > 0 {
		m.current--
		m.viewport.SetYOffset(m.blocks[m.current])
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(msg.Height-2, 1))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n", "tab":
			return m.NextBlock(), nil
		case "p", "shift+tab":
			return m.PrevBlock(), nil
		case "g", "home":
			m.current = -1
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.current = len(m.blocks) - 1
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Padding(0, 1).
		Width(m.width)

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	block := "-"
	if m.current >= 0 {
		block = fmt.Sprintf("%d", m.current+1)
	}
	menu := fmt.Sprintf(" block %s/%d • N/P: next/prev block • G/g: end/top • Q: quit ", block, len(m.blocks))

	return titleStyle.Render(m.title) + "\n" + m.viewport.View() + "\n" + menuStyle.Render(menu)
}
