package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Secrets are read without
// echo when the input is a terminal and as plain lines otherwise.
type prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), r: bufio.NewReader(cmd.InOrStdin())}
}

// line prints label and returns the trimmed answer.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label) //nolint:errcheck
	s, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// required is line with an empty answer rejected.
func (p *prompter) required(label, what string) (string, error) {
	s, err := p.line(label)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return s, nil
}

// secret reads a password. Surrounding spaces are kept.
func (p *prompter) secret(label string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label) //nolint:errcheck
		s, err := p.r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || s == "") {
			return "", errors.New("no password given")
		}
		return strings.TrimRight(s, "\r\n"), nil
	}
	fmt.Fprint(p.out, label) //nolint:errcheck
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out) //nolint:errcheck
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// newPassword asks twice and requires both answers to match.
func (p *prompter) newPassword(label string) (string, error) {
	pw, err := p.secret(label)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password is required")
	}
	confirm, err := p.secret("Repeat password: ")
	if err != nil {
		return "", err
	}
	if confirm != pw {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
