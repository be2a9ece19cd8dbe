package confirm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cleanerguard/internal/recognizer"
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 2).
			Width(72)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	pathStyle    = lipgloss.NewStyle().Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("238"))
	focusedStyle = buttonStyle.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Bold(true)
)

const (
	buttonAdd = iota
	buttonDelete
)

// dialogModel is a modal Add/Delete question. Delete has focus initially.
type dialogModel struct {
	path    string
	class   recognizer.Classification
	message string
	focus   int
	done    bool
	accept  bool
}

func newDialogModel(path string, c recognizer.Classification) (dialogModel, error) {
	msg, err := Message(path, c)
	if err != nil {
		return dialogModel{}, err
	}
	return dialogModel{path: path, class: c, message: msg, focus: buttonDelete}, nil
}

func (m dialogModel) Init() tea.Cmd { return nil }

func (m dialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		if m.focus == buttonAdd {
			m.focus = buttonDelete
		} else {
			m.focus = buttonAdd
		}
		return m, nil
	case "a":
		return m.choose(true)
	case "d", "esc", "ctrl+c", "q":
		return m.choose(false)
	case "enter", " ":
		return m.choose(m.focus == buttonAdd)
	}
	return m, nil
}

func (m dialogModel) choose(accept bool) (tea.Model, tea.Cmd) {
	m.done = true
	m.accept = accept
	return m, tea.Quit
}

func (m dialogModel) View() string {
	if m.done {
		return ""
	}
	body, path, _ := strings.Cut(m.message, "\n\n")

	add, del := buttonStyle, buttonStyle
	if m.focus == buttonAdd {
		add = focusedStyle
	} else {
		del = focusedStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("⚠  cleanerguard"))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(pathStyle.Render(path))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, add.Render("Add"), "  ", del.Render("Delete")))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("←/→ move · enter choose · a add · d delete"))
	return dialogStyle.Render(b.String()) + "\n"
}

// Dialog renders the question as a modal terminal dialog.
type Dialog struct {
	in  io.Reader
	out io.Writer
}

// NewDialog reads keys from in and draws on out.
func NewDialog(in io.Reader, out io.Writer) *Dialog {
	return &Dialog{in: in, out: out}
}

func (d *Dialog) Confirm(ctx context.Context, path string, c recognizer.Classification) (bool, error) {
	model, err := newDialogModel(path, c)
	if err != nil {
		return false, err
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(d.in),
		tea.WithOutput(d.out),
	)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return false, ctxErr
		}
		return false, fmt.Errorf("run confirmation dialog: %w", err)
	}

	result, ok := final.(dialogModel)
	if !ok || !result.done {
		return false, ErrNoAnswer
	}
	return result.accept, nil
}
