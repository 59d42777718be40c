package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// lineReader is the part of liner.State the shell uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

func newLiner() *liner.State {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return l
}

// getText prompts for one line of input.
func (a *App) getText(prompt string) (string, error) {
	s, err := a.in.Prompt(prompt + ": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// getSecret reads a line without echo. Callers wipe the returned slice.
func getSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stdout, prompt+": ")
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return nil, err
	}
	return b, nil
}
