// Package ui is the demo TUI host for the task scheduler. The bubbletea
// program is the "host event loop" of the scheduler's contract: a Manual
// loop is ticked from Update on a frame-rate heartbeat, so every task
// callback runs on the UI goroutine, never concurrently with rendering.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"taskloop/internal/backend"
	"taskloop/internal/loop"
	"taskloop/internal/task"
)

// pollEvery is the heartbeat driving the scheduler's pollers, roughly one
// frame.
const pollEvery = 16 * time.Millisecond

// tickMsg is the poll heartbeat.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(pollEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// row is the UI state for one scheduled task.
type row struct {
	task    *task.Task
	bar     progress.Model
	percent float64
	diag    string
	failure string
}

// Model is the top-level bubbletea model.
type Model struct {
	lp       *loop.Manual
	rows     []*row
	selected int
	nextMode backend.Mode
	width    int
	err      error // fatal poll-tick error (abort-on-worker-error policy)
}

// New creates the model with one demo task already running.
func New() Model {
	m := Model{
		lp:       loop.NewManual(),
		nextMode: backend.ModeSharedLock,
		width:    80,
	}
	m.addTask()
	return m
}

// Err returns the fatal poll-tick error that ended the program, if any.
func (m Model) Err() error { return m.err }

// addTask schedules one demo worker, alternating between the two backends.
func (m *Model) addTask() {
	mode := m.nextMode
	if m.nextMode == backend.ModeSharedLock {
		m.nextMode = backend.ModeIsolated
	} else {
		m.nextMode = backend.ModeSharedLock
	}

	r := &row{bar: progress.New(progress.WithDefaultGradient())}
	tk, err := task.Schedule(m.lp, DemoPayload{Steps: 120, StepDelay: 40 * time.Millisecond},
		DemoWork, task.Options{Mode: mode, PollInterval: pollEvery})
	if err != nil {
		// Construction errors on the demo payload would be a programming
		// error; show them in place of the task.
		r.failure = err.Error()
		m.rows = append(m.rows, r)
		return
	}
	r.task = tk
	tk.OnProgress(func(v any) { r.percent = v.(float64) }).
		OnError(func(err error) { r.failure = err.Error() }).
		OnDiagnostic(func(d task.Diagnostic) { r.diag = d.String() })
	m.rows = append(m.rows, r)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if err := m.lp.Tick(time.Time(msg)); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.addTask()
		case "j", "down":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case "k", "up":
			if m.selected > 0 {
				m.selected--
			}
		case "p":
			if r := m.selectedRow(); r != nil && r.task != nil {
				r.task.Pause()
			}
		case "r":
			if r := m.selectedRow(); r != nil && r.task != nil {
				r.task.Resume()
			}
		case "s":
			if r := m.selectedRow(); r != nil && r.task != nil {
				r.task.Stop()
			}
		}
	}
	return m, nil
}

func (m Model) selectedRow() *row {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return nil
	}
	return m.rows[m.selected]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("taskloop"))
	b.WriteString(Styles.Muted.Render(fmt.Sprintf("  %d live", task.LiveCount())))
	b.WriteString("\n\n")

	barWidth := m.width - 40
	if barWidth < 10 {
		barWidth = 10
	}

	for i, r := range m.rows {
		marker := "  "
		if i == m.selected {
			marker = Styles.Selected.Render("> ")
		}
		b.WriteString(marker)
		b.WriteString(m.renderRow(r, barWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(Styles.Muted.Render("a add · j/k select · p pause · r resume · s stop · q quit"))
	return b.String()
}

func (m Model) renderRow(r *row, barWidth int) string {
	if r.task == nil {
		return Styles.Danger.Render("schedule failed: " + r.failure)
	}

	state := r.task.State()
	var stateStr string
	switch state {
	case task.StateDone:
		stateStr = Styles.Title.Render(string(state))
	case task.StateFailed:
		stateStr = Styles.Danger.Render(r.failure)
	case task.StatePaused, task.StateStopped:
		stateStr = Styles.Warn.Render(string(state))
	default:
		stateStr = Styles.Normal.Render(string(state))
	}

	r.bar.Width = barWidth
	line := fmt.Sprintf("#%d %-11s %s %s",
		r.task.ID(), r.task.Mode(), r.bar.ViewAs(r.percent), stateStr)
	if r.diag != "" {
		line += Styles.Warn.Render("  " + r.diag)
	}
	return line
}
