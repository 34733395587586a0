package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var removeYes bool

var removeCmd = &cobra.Command{
	Use:   "remove <email> [email...]",
	Short: "Remove accounts from the backend",
	Long: `Remove one or more accounts from the backend and drop their
cached credentials. Asks for confirmation unless --yes is given.

Examples:
  mailadm accounts remove user@example.com
  mailadm accounts remove a@example.com b@example.com --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !removeYes {
			fmt.Printf("Remove %d account(s) from the server? [y/N] ", len(args))
			reader := bufio.NewReader(os.Stdin)
			answer, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read confirmation: %w", err)
			}
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		sessions, err := openSession()
		if err != nil {
			return err
		}
		if err := requireLogin(sessions); err != nil {
			return err
		}
		c, err := openClient(sessions)
		if err != nil {
			return err
		}

		result, err := c.DeleteAccounts(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("remove accounts: %w", err)
		}
		if err := sessions.RemoveAccounts(args); err != nil {
			return fmt.Errorf("update cache: %w", err)
		}

		if result.Message != "" {
			fmt.Println(result.Message)
		} else {
			fmt.Printf("Removed %d account(s)\n", result.Deleted)
		}
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip confirmation")
	accountsCmd.AddCommand(removeCmd)
}
