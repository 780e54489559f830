package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ohare93/delegate/internal/board"
	"github.com/ohare93/delegate/internal/watcher"
)

func newBoardCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive task board",
		Long: `Open a full-screen board of your open tasks by due date.

Navigation:
  tab/→/l    Next bucket (today, this week, later)
  ←/h        Previous bucket
  ↑/k ↓/j    Move

Actions:
  s          Move the selected task to the next status
  /          Filter by title (enter keeps it, esc clears it)
  r          Reload
  q          Quit

With the file store the board reloads when another process writes tasks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := a.actor(ctx, opts)
			if err != nil {
				return err
			}

			var w *watcher.Watcher
			if a.fileDir != "" {
				w, err = watcher.New()
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.WatchStore(a.fileDir); err != nil {
					return err
				}
				w.Start()
			}

			p := tea.NewProgram(board.New(a.svc, actor, w), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("failed to run board: %w", err)
			}
			return nil
		},
	}
}
