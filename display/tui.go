package display

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type frameMsg Frame
type headerMsg struct{ Text string }

type tuiModel struct {
	frame         Frame
	header        string
	flips         int
	width, height int
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		m.frame = Frame(msg)
		m.flips++

	case headerMsg:
		m.header = msg.Text
	}
	return m, nil
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Text sits above the dot, farthest offset first.
	var lines []string
	text := m.frame.Text
	for i := len(text) - 1; i >= 0; i-- {
		for _, l := range strings.Split(text[i].Text, "\n") {
			lines = append(lines, textStyle.Render(l))
		}
		lines = append(lines, "")
	}
	if m.frame.Fixation {
		lines = append(lines, renderDot(m.frame.FixationColour))
	}

	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
	return headerStyle.Render(m.header) + "\n" + body
}

// renderDot draws the fixation point. A black dot on a dark terminal would be
// invisible, so it is drawn as an outline.
func renderDot(colour string) string {
	if colour == "" {
		colour = Grey
	}
	glyph := "●"
	if colour == Black {
		glyph = "○"
		colour = "#808080"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colour)).Render(glyph)
}

// TUI renders frames in the terminal. It never reads stdin; key input comes
// from a keyboard.Provider.
type TUI struct {
	canvas

	prog *tea.Program
	done chan error
}

func NewTUI(out io.Writer) *TUI {
	prog := tea.NewProgram(tuiModel{},
		tea.WithAltScreen(),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	t := &TUI{prog: prog, done: make(chan error, 1)}
	go func() {
		_, err := prog.Run()
		t.done <- err
	}()
	return t
}

func (t *TUI) Flip() error {
	t.prog.Send(frameMsg(t.swap()))
	return nil
}

// SetHeader replaces the status line at the top of the screen.
func (t *TUI) SetHeader(format string, args ...any) {
	t.prog.Send(headerMsg{Text: fmt.Sprintf(format, args...)})
}

func (t *TUI) Close() error {
	t.prog.Quit()
	return <-t.done
}
