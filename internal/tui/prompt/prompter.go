// Package prompt asks a person to play the part of the platform's
// resolution UI and error dialog.
package prompt

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Prompter implements simulator.Prompter with Bubbletea programs.
type Prompter struct {
	in  io.Reader
	out io.Writer
	run func(tea.Model) (tea.Model, error)
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithIO sets the terminal streams. Defaults to stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Prompter) {
		p.in = in
		p.out = out
	}
}

// New creates a Prompter.
func New(opts ...Option) *Prompter {
	p := &Prompter{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	if p.run == nil {
		p.run = p.runProgram
	}
	return p
}

func (p *Prompter) runProgram(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
}

// Resolve shows the resolution UI and returns the chosen result code.
// Leaving the prompt without a choice cancels the resolution.
func (p *Prompter) Resolve(errorCode int) (int, error) {
	final, err := p.run(NewResolution(errorCode))
	if err != nil {
		return 0, fmt.Errorf("resolution prompt: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return 0, fmt.Errorf("resolution prompt: unexpected model %T", final)
	}
	return m.Result(), nil
}

// Dialog shows the error dialog and returns once it is closed.
func (p *Prompter) Dialog(errorCode int) error {
	if _, err := p.run(NewDialog(errorCode)); err != nil {
		return fmt.Errorf("error dialog: %w", err)
	}
	return nil
}
