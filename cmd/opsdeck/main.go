// cmd/opsdeck/main.go
//
// Entry point for the opsdeck dashboard. Running `opsdeck` from any
// directory initializes the .opsdeck folder there and launches the TUI
// against the API configured in .opsdeck/config.yaml.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/opsdeck/internal/config"
	"github.com/kingrea/opsdeck/internal/tui"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitOpsdeckDir(absoluteProject); err != nil {
		die("init .opsdeck: %v", err)
	}

	app, err := tui.NewApp(absoluteProject)
	if err != nil {
		die("start opsdeck: %v", err)
	}
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)
	if _, err := p.Run(); err != nil {
		die("run TUI: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
