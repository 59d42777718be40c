package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/peterh/liner"
)

type command struct {
	names []string
	usage string
	// auth marks commands that need a session.
	auth bool
	run  func(ctx context.Context, args []string) error
}

// runREPL reads commands from in and dispatches them until EOF, Ctrl-C at
// the prompt, or "exit". Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, cmds []command, loggedIn func() bool, statusFn func() string, in lineReader) {
	index := make(map[string]command)
	for _, c := range cmds {
		for _, n := range c.names {
			index[n] = c
		}
	}

	for {
		line, err := in.Prompt(promptStyle.Render("fk"+statusFn()+"> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) {
				printlnFn()
			}
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		in.AppendHistory(line)

		name, args := parts[0], parts[1:]
		switch name {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			printHelp(cmds, loggedIn())
			continue
		}

		c, ok := index[name]
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}
		if c.auth && !loggedIn() {
			printlnFn(warnStyle.Render("log in first"))
			continue
		}

		if err := c.run(ctx, args); err != nil {
			printlnFn(errorStyle.Render("error: " + userMessage(err)))
		}
	}
}

func printHelp(cmds []command, loggedIn bool) {
	printlnFn("Available commands:")
	for _, c := range cmds {
		if c.auth && !loggedIn {
			continue
		}
		printlnFn("  " + c.usage)
	}
	printlnFn("  exit")
}
