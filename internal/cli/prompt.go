package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/law-makers/harvest/internal/ui"
)

// errNoInput is returned when the input ends before a valid answer is given
var errNoInput = errors.New("no input")

// Prompter asks for missing run parameters on an interactive terminal.
// Each question loops until the answer is valid or input ends.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and writing questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// isInteractive reports whether f is attached to a terminal
func isInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (p *Prompter) readLine(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", ui.Bold(question))
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Query asks for a non-empty search term
func (p *Prompter) Query() (string, error) {
	for {
		answer, err := p.readLine("Enter search term:")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(p.out, ui.Error("Search term must not be empty."))
	}
}

// Pages asks for a positive page count
func (p *Prompter) Pages() (int, error) {
	for {
		answer, err := p.readLine("Enter number of pages:")
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintln(p.out, ui.Error(fmt.Sprintf("%q is not a positive whole number.", answer)))
	}
}
