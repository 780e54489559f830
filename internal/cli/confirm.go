package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	envUser     = "DELEGATE_USER"
	envPassword = "DELEGATE_PASSWORD"
)

// readPassword returns $DELEGATE_PASSWORD, or prompts on the terminal without
// echo. Without a terminal and without the variable it fails.
func readPassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv(envPassword); ok {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for password prompt: set %s", envPassword)
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
