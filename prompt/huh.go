package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a prompt is needed, but stdin is not a terminal
var ErrNotTerminal = errors.New("interactive prompts require a terminal")

// Terminal is the huh backed Chooser and form runner used on an interactive terminal.
type Terminal struct {
	isTerminal func() bool
}

// NewTerminal returns a Terminal reading from stdin.
func NewTerminal() *Terminal {
	return &Terminal{isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }}
}

func (t *Terminal) run(ctx context.Context, f *huh.Form) error {
	if !t.isTerminal() {
		return ErrNotTerminal
	}

	if err := f.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return err
	}
	return nil
}

// ChooseOne implements Chooser.
func (t *Terminal) ChooseOne(ctx context.Context, title string, options []Option) (string, error) {
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	var v string
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(opts...).
				Value(&v),
		),
	)

	if err := t.run(ctx, f); err != nil {
		return "", err
	}
	return v, nil
}

// ProfileAnswers holds the text values entered in the profile form.
type ProfileAnswers struct {
	BastionUser  string
	BastionPort  string
	InstanceUser string
	Key          string
}

// AskProfile shows the profile form, pre-filled with the values in a.  validateKey is called for the private
// key path.
func (t *Terminal) AskProfile(ctx context.Context, a *ProfileAnswers, validateKey func(string) error) error {
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bastion host user").
				Value(&a.BastionUser),
			huh.NewInput().
				Title("Bastion host port").
				Value(&a.BastionPort).
				Validate(ValidatePort),
			huh.NewInput().
				Title("Default instance user").
				Value(&a.InstanceUser),
			huh.NewInput().
				Title("Private SSH Key Path").
				Value(&a.Key).
				Validate(validateKey),
		),
	)

	return t.run(ctx, f)
}

// ValidatePort checks that s is a TCP port number.  An empty value is accepted, and means the default port.
func ValidatePort(s string) error {
	if s == "" {
		return nil
	}

	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q", s)
	}
	return nil
}
