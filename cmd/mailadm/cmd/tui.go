package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/tui"
)

// version is set at build time via -ldflags.
var version = "dev"

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long: `Open the interactive console: log in, manage accounts, and read
mail without leaving the terminal.

Account manager:
  ^s / ^b / esc  Switch between single login, batch import, and table
  ↑/k, ↓/j       Move up/down
  Space          Toggle selection
  a              Select all visible
  s              Toggle sold on the highlighted account
  e              Edit remark
  /              Search by email or remark
  f              Cycle status filter
  d              Delete selected (with confirmation)
  Enter          Open the highlighted account's mail

Mail reader:
  Tab            Switch between inbox and junk panes
  n / p          Next / previous page
  r              Force a server-side refresh
  A              Switch account
  Enter          Open message (1/2/3 switch HTML, plain, raw tabs; c copies)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := openSession()
		if err != nil {
			return err
		}
		c, err := openClient(sessions)
		if err != nil {
			return err
		}

		model := tui.New(c, sessions, tui.Options{Version: version})
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
