// Package confirm gates destructive actions behind an explicit yes/no answer.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Tone hints how dangerous the confirmed action is.
type Tone string

const (
	Danger  Tone = "danger"
	Warning Tone = "warning"
	Info    Tone = "info"
)

// Confirmer asks the user to approve an action. onConfirm runs only after
// explicit approval and before Confirm returns; declining does nothing.
type Confirmer interface {
	Confirm(title, message string, onConfirm func(), tone Tone)
}

// Prompt asks on a text stream and accepts "y" or "yes".
type Prompt struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a prompt reading answers from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	if out == nil {
		out = io.Discard
	}
	return &Prompt{in: bufio.NewReader(in), out: out}
}

var toneMarks = map[Tone]string{
	Danger:  "❌",
	Warning: "⚠️ ",
	Info:    "ℹ",
}

// Confirm prints the question and waits for one line of input. Anything
// other than yes, including EOF, declines.
func (p *Prompt) Confirm(title, message string, onConfirm func(), tone Tone) {
	p.mu.Lock()
	approved := p.ask(title, message, tone)
	p.mu.Unlock()

	if approved && onConfirm != nil {
		onConfirm()
	}
}

func (p *Prompt) ask(title, message string, tone Tone) bool {
	mark, ok := toneMarks[tone]
	if !ok {
		mark = toneMarks[Danger]
	}
	fmt.Fprintf(p.out, "\n%s %s\n", mark, title)
	if message != "" {
		fmt.Fprintln(p.out, message)
	}
	fmt.Fprint(p.out, "Continue? [y/N]: ")

	input, err := p.in.ReadString('\n')
	if err != nil && input == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// AutoApprove approves every request without asking.
type AutoApprove struct{}

// Confirm runs onConfirm immediately.
func (AutoApprove) Confirm(_, _ string, onConfirm func(), _ Tone) {
	if onConfirm != nil {
		onConfirm()
	}
}

// Deny declines every request. When Out is set, Reason is written to it
// each time a request is declined.
type Deny struct {
	Out    io.Writer
	Reason string
}

// Confirm never runs onConfirm.
func (d Deny) Confirm(title, _ string, _ func(), _ Tone) {
	if d.Out != nil && d.Reason != "" {
		fmt.Fprintf(d.Out, "%s: %s\n", title, d.Reason)
	}
}

// ForStdin returns the confirmer the CLI uses: AutoApprove when assumeYes is
// set, a Prompt on stdin when stdin is a terminal, and Deny otherwise so a
// piped invocation never deletes without --yes.
func ForStdin(assumeYes bool, out io.Writer) Confirmer {
	if assumeYes {
		return AutoApprove{}
	}
	if out == nil {
		out = os.Stderr
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return Deny{Out: out, Reason: "declined: stdin is not a terminal, pass --yes to confirm"}
	}
	return NewPrompt(os.Stdin, out)
}
