package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdinReader is shared so that consecutive prompts do not lose buffered input.
var stdinReader = bufio.NewReader(os.Stdin)

// promptLine prints label and returns the trimmed answer, or def when the
// answer is empty.
func promptLine(out io.Writer, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	input, err := stdinReader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	return input, nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// and a plain line otherwise (for piped input).
func promptPassword(out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(out, label, "")
	}
	fmt.Fprintf(out, "%s: ", label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
