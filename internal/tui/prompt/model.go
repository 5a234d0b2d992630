package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/toritoma/playbridge/internal/session"
)

// resultFailed is reported when the player makes the resolution fail.
// Any code other than OK and canceled counts as a failed resolution.
const resultFailed = 1

// Kind is the kind of UI a Model shows.
type Kind int

// Prompt kinds.
const (
	KindResolution Kind = iota
	KindDialog
)

// Choice is one selectable answer.
type Choice struct {
	Label  string
	Result int
}


// Model is the Bubbletea model for a resolution UI or error dialog.
type Model struct {
	kind      Kind
	errorCode int
	choices   []Choice
	cursor    int
	keys      KeyMap

	chosen   bool
	result   int
	quitting bool
}

// NewResolution creates the resolution UI for errorCode.
func NewResolution(errorCode int) Model {
	return Model{
		kind:      KindResolution,
		errorCode: errorCode,
		keys:      DefaultKeyMap(),
		choices: []Choice{
			{Label: "Sign in", Result: session.ResultOK},
			{Label: "Not now", Result: session.ResultCanceled},
			{Label: "Make it fail", Result: resultFailed},
		},
		result: session.ResultCanceled,
	}
}

// NewDialog creates the blocking error dialog for errorCode.
func NewDialog(errorCode int) Model {
	return Model{
		kind:      KindDialog,
		errorCode: errorCode,
		keys:      DefaultKeyMap(),
		choices:   []Choice{{Label: "OK", Result: session.ResultOK}},
		result:    session.ResultCanceled,
	}
}

// Result returns the chosen result code, or canceled if the prompt was
// left without a choice.
func (m Model) Result() int { return m.result }

// Chosen reports whether a choice was made.
func (m Model) Chosen() bool { return m.chosen }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(m.choices)) % len(m.choices)

	case key.Matches(keyMsg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.choices)

	case key.Matches(keyMsg, m.keys.Select):
		m.chosen = true
		m.result = m.choices[m.cursor].Result
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.kind == KindDialog {
		b.WriteString(titleStyle.Render("Sign-in unavailable"))
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("The game service reported error %d.", m.errorCode)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Leaderboards are disabled until the next start."))
	} else {
		b.WriteString(titleStyle.Render("Sign in to the game service"))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Connection failed with code %d and can be resolved.", m.errorCode)))
	}
	b.WriteString("\n\n")

	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + c.Label))
		} else {
			b.WriteString("  " + c.Label)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help()))
	return boxStyle.Render(b.String())
}

func (m Model) help() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Cancel}
	if m.kind == KindDialog {
		bindings = []key.Binding{m.keys.Select, m.keys.Cancel}
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
