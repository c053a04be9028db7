package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskloop/internal/task"
	"taskloop/internal/ui"
)

func main() {
	// Task-lifecycle tracing is enabled only when an OTLP endpoint is
	// configured in the environment.
	telemetry, err := task.NewTelemetry(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry setup: %v\n", err)
		os.Exit(1)
	}
	task.SetTelemetry(telemetry)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	}()

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	model, err := p.Run()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if m, ok := model.(ui.Model); ok && m.Err() != nil {
		fmt.Fprintf(os.Stderr, "poll tick fault: %v\n", m.Err())
		os.Exit(1)
	}
}
