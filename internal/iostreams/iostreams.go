package iostreams

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/eiannone/keyboard"
	"github.com/mattn/go-isatty"
)

var (
	ErrAbortPrompt = fmt.Errorf("abort prompt")
	ErrNotTerminal = fmt.Errorf("not a terminal")
)

func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type IOStreams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	isTerminal func() bool
}

func (i *IOStreams) IsTerminal() bool {
	if i.isTerminal != nil {
		return i.isTerminal()
	}

	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

// Prompt prints msg and waits for a single key. Any key outside
// continueChars and continueKeys aborts with ErrAbortPrompt.
func (i *IOStreams) Prompt(msg string, continueChars []rune, continueKeys []keyboard.Key) error {
	if !i.IsTerminal() {
		return ErrNotTerminal
	}

	if err := keyboard.Open(); err != nil {
		return err
	}
	defer keyboard.Close()

	fmt.Fprint(i.Stdout, msg+" ")

	char, key, err := keyboard.GetKey()
	fmt.Fprintln(i.Stdout)
	if err != nil {
		return err
	}

	if slices.Contains(continueChars, char) || slices.Contains(continueKeys, key) {
		return nil
	}

	return ErrAbortPrompt
}

func NewIOStreams() *IOStreams {
	return &IOStreams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Test returns streams backed by buffers that never report a terminal.
func Test(stdin io.Reader, stdout, stderr io.Writer) *IOStreams {
	return &IOStreams{
		Stdin:      stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		isTerminal: func() bool { return false },
	}
}
