package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/srg/peltctl/internal/notify"
)

// Run shows the screen until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, toasts *notify.Queue, logs *LogTail, opts ...tea.ProgramOption) error {
	model := NewModel(ctx, ctrl, toasts, logs)

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return ctx.Err()
		}
		return fmt.Errorf("screen failed: %w", err)
	}
	return nil
}
