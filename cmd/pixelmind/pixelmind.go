package main

import (
	"os"

	"github.com/fatih/color"
	_ "go.uber.org/automaxprocs"

	"github.com/kiosk404/pixelmind/internal/pixelmind/cmd"
)

func main() {
	command := cmd.NewDefaultPixelmindCommand()
	if err := command.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
