package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(tea.Model, ...tea.ProgramOption) programRunner

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, newProgram programFactory) error {
	fs := flag.NewFlagSet("convopts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	serverAddr := fs.String("server", "http://localhost:8080", "convopts server address")
	conversationID := fs.String("conversation", "", "conversation id (empty creates a new conversation)")
	title := fs.String("title", "", "title for a newly created conversation")
	token := fs.String("token", os.Getenv("CONVOPTS_API_TOKEN"), "api token (defaults to $CONVOPTS_API_TOKEN)")
	themeName := fs.String("theme", themeDark, "color theme: light or dark")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server := strings.TrimRight(strings.TrimSpace(*serverAddr), "/")
	if server == "" {
		return errors.New("server address is required")
	}
	if strings.TrimSpace(*token) == "" {
		return errors.New("api token is required")
	}
	t, err := newTheme(*themeName)
	if err != nil {
		return err
	}

	api := NewAPIClient(server, strings.TrimSpace(*token))
	m := newRootModel(api, *conversationID, *title, t)

	if newProgram == nil {
		newProgram = func(model tea.Model, options ...tea.ProgramOption) programRunner {
			return tea.NewProgram(model, options...)
		}
	}

	p := newProgram(m, tea.WithAltScreen(), tea.WithInput(stdin), tea.WithOutput(stdout))
	final, err := p.Run()
	if root, ok := final.(rootModel); ok {
		root.close()
	}
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
