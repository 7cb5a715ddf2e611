package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

func runListCommand(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: routines list")
		return 2
	}

	reg, err := buildRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		return 1
	}

	names := reg.Names()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
		fmt.Println(title.Render(fmt.Sprintf("%d routines registered", len(names))))
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}
