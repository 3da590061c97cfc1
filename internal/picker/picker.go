// Package picker lets the user choose one of several resolved candidates.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// ErrCancelled is returned when the user backs out of the picker.
	ErrCancelled = errors.New("selection cancelled")
	// ErrAmbiguous is returned when several candidates exist and no
	// interactive terminal is available to choose between them.
	ErrAmbiguous = errors.New("multiple candidates; pass --pick N to choose one")
	// ErrOutOfRange is returned for a --pick value outside the list.
	ErrOutOfRange = errors.New("pick out of range")
	// ErrEmpty is returned when there is nothing to choose from.
	ErrEmpty = errors.New("no candidates to choose from")
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Cancel: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc/q", "cancel")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Model is the Bubble Tea model behind Run.
type Model struct {
	title     string
	items     []string
	cursor    int
	height    int
	chosen    int
	cancelled bool
}

// NewModel returns a picker over the given labels.
func NewModel(title string, items []string) Model {
	return Model{title: title, items: items, chosen: -1}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Select):
			m.chosen = m.cursor
			return m, tea.Quit
		case key.Matches(msg, keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")

	first, last := m.window()
	for i := first; i < last; i++ {
		label := fmt.Sprintf("%d. %s", i+1, m.items[i])
		if i == m.cursor {
			sb.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(label))
		} else {
			sb.WriteString(itemStyle.Render(label))
		}
		sb.WriteString("\n")
	}

	help := []string{keys.Up.Help().Key + " " + keys.Up.Help().Desc}
	for _, b := range []key.Binding{keys.Down, keys.Select, keys.Cancel} {
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}
	sb.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	sb.WriteString("\n")
	return sb.String()
}

// window returns the visible item range for the current terminal height.
func (m Model) window() (int, int) {
	visible := len(m.items)
	if m.height > 6 && m.height-6 < visible {
		visible = m.height - 6
	}
	first := m.cursor - visible/2
	if first < 0 {
		first = 0
	}
	if first+visible > len(m.items) {
		first = len(m.items) - visible
	}
	return first, first + visible
}

// Chosen returns the selected index, or -1.
func (m Model) Chosen() int { return m.chosen }

// Cancelled reports whether the user backed out.
func (m Model) Cancelled() bool { return m.cancelled }

// Run shows the picker on the given terminal streams and returns the
// chosen 0-based index.
func Run(ctx context.Context, title string, items []string, in io.Reader, out io.Writer) (int, error) {
	if len(items) == 0 {
		return -1, ErrEmpty
	}

	p := tea.NewProgram(NewModel(title, items),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("running picker: %w", err)
	}

	m := final.(Model)
	if m.Cancelled() || m.Chosen() < 0 {
		return -1, ErrCancelled
	}
	return m.Chosen(), nil
}

// Select turns a 1-based --pick value into an index.
func Select(pick, count int) (int, error) {
	if count == 0 {
		return -1, ErrEmpty
	}
	if pick < 1 || pick > count {
		return -1, fmt.Errorf("%w: %d (have %d candidates)", ErrOutOfRange, pick, count)
	}
	return pick - 1, nil
}

// Options controls Choose.
type Options struct {
	Pick        int  // 1-based explicit choice; 0 means unset
	Interactive bool // a terminal is attached
	Title       string
	In          io.Reader
	Out         io.Writer
}

// Choose picks a candidate: an explicit Pick wins, a single candidate is
// taken as is, otherwise the interactive picker runs.
func Choose(ctx context.Context, items []string, opts Options) (int, error) {
	switch {
	case len(items) == 0:
		return -1, ErrEmpty
	case opts.Pick > 0:
		return Select(opts.Pick, len(items))
	case len(items) == 1:
		return 0, nil
	case !opts.Interactive:
		return -1, ErrAmbiguous
	}
	return Run(ctx, opts.Title, items, opts.In, opts.Out)
}
