package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrNoChoices is returned by Select when there is nothing to pick from.
var ErrNoChoices = errors.New("no choices available")

// Prompter asks the user questions. Terminal is the interactive
// implementation; tests supply their own.
type Prompter interface {
	Select(label string, choices []string) (string, error)
	Confirm(label string) (bool, error)
}

// Terminal prompts on a terminal using promptui.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// NewTerminal returns a Terminal bound to the process's stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{Stdin: os.Stdin, Stdout: os.Stdout}
}

// Select asks the user to pick one of choices. Typing filters by prefix.
func (t *Terminal) Select(label string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoices
	}

	sel := &promptui.Select{
		Label: label,
		Items: choices,
		Searcher: func(input string, index int) bool {
			return strings.HasPrefix(choices[index], input)
		},
		Stdin:  t.Stdin,
		Stdout: t.Stdout,
	}

	_, value, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("select %q: %w", label, err)
	}

	return value, nil
}

// Confirm asks a yes/no question. Answering no is not an error.
func (t *Terminal) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.Stdin,
		Stdout:    t.Stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
