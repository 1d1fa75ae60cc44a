package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/errors"
	"github.com/wasmlir/wasmlir/ir"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	renderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// runInteractive drives the expression explorer TUI over lib.
func runInteractive(lib wasmlir.Library, filename string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	ctx, err := ir.NewContext(lib)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	defer ctx.Close(context.Background())

	input := textinput.New()
	input.Placeholder = "d0 + s0 * 2"
	input.Focus()
	input.CharLimit = 120
	input.Width = 60

	m := &interactiveModel{
		ctx:      ctx,
		filename: filename,
		input:    input,
	}
	_, err = tea.NewProgram(m).Run()
	return err
}

type interactiveModel struct {
	ctx      *ir.Context
	filename string
	input    textinput.Model
	report   []string
	errText  string
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.evaluate(strings.TrimSpace(m.input.Value()))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) evaluate(text string) {
	m.report = nil
	m.errText = ""
	if text == "" {
		return
	}

	defer func() {
		// Contract violations surface as structured panics; in the
		// explorer they are just another thing to display.
		if r := recover(); r != nil {
			if err, ok := r.(*errors.Error); ok {
				m.errText = err.Error()
				return
			}
			panic(r)
		}
	}()

	parsed, err := parseExpr(m.ctx, text)
	if err != nil {
		m.errText = err.Error()
		return
	}

	e := parsed.expr
	m.report = []string{
		row("rendering", renderStyle.Render(e.String())),
		row("inputs", fmt.Sprintf("%d dims, %d symbols", parsed.dims, parsed.syms)),
		row("pure affine", fmt.Sprintf("%t", e.IsPureAffine())),
		row("symbolic or constant", fmt.Sprintf("%t", e.IsSymbolicOrConstant())),
		row("largest known divisor", fmt.Sprintf("%d", e.LargestKnownDivisor())),
	}
	if e.IsBinary() {
		m.report = append(m.report,
			row("lhs", renderStyle.Render(e.BinaryLHS().String())),
			row("rhs", renderStyle.Render(e.BinaryRHS().String())))
	}
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-22s", label+":")), value)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	source := m.filename
	if source == "" {
		source = "built-in stand-in"
	}
	b.WriteString(titleStyle.Render("affine explorer: " + source))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
		b.WriteString("\n")
	}
	for _, line := range m.report {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: evaluate • esc: quit"))
	b.WriteString("\n")
	return b.String()
}
