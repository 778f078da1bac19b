package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var ellipsisSpinner = spinner.Spinner{
	Frames: []string{"", ".", "..", "..."},
	FPS:    time.Second / 3, //nolint:mnd
}

type doneMsg[T any] struct{ v T }

// ellipsis shows a label with a spinner while work runs in the background.
type ellipsis[T any] struct {
	head  spinner.Model
	tail  spinner.Model
	label string
	run   func() T

	result   T
	done     bool
	canceled bool
}

func newEllipsis[T any](s styles, label string, run func() T) ellipsis[T] {
	return ellipsis[T]{
		head:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Flag)),
		tail:  spinner.New(spinner.WithSpinner(ellipsisSpinner)),
		label: label,
		run:   run,
	}
}

func (s ellipsis[T]) Init() tea.Cmd {
	return tea.Batch(s.head.Tick, s.tail.Tick, func() tea.Msg {
		return doneMsg[T]{s.run()}
	})
}

func (s ellipsis[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg[T]:
		s.result, s.done = msg.v, true
		return s, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			s.canceled = true
			return s, tea.Quit
		}
	}
	cmds := make([]tea.Cmd, 2) //nolint:mnd
	s.head, cmds[0] = s.head.Update(msg)
	s.tail, cmds[1] = s.tail.Update(msg)
	return s, tea.Batch(cmds...)
}

func (s ellipsis[T]) View() string {
	if s.done || s.canceled {
		return ""
	}
	return s.head.View() + s.label + s.tail.View()
}

// waitFor runs fn, animating the label on stderr when it is a terminal.
// Canceling the spinner cancels the context given to fn.
func waitFor[T any](ctx context.Context, label string, fn func(context.Context) T) (T, error) {
	if !isErrTTY() {
		return fn(ctx), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m := newEllipsis(stderrStyles(), label, func() T { return fn(ctx) })
	final, err := tea.NewProgram(
		m,
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		var zero T
		return zero, clawError{err, "Could not start the spinner."}
	}
	res := final.(ellipsis[T]) //nolint:forcetypeassert
	if res.canceled {
		return res.result, clawError{context.Canceled, "Canceled."}
	}
	return res.result, nil
}
