package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/session"
)

var (
	addRefreshToken string
	addClientID     string
)

var addCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Register a single account",
	Long: `Register one mail account on the backend using its OAuth refresh
token and client ID. On success the credentials are also cached locally
so the account can be opened in the TUI mail reader.

Examples:
  mailadm accounts add user@example.com --refresh-token M.R3_... --client-id 9e5f...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if addRefreshToken == "" {
			return fmt.Errorf("--refresh-token is required")
		}
		if addClientID == "" {
			return fmt.Errorf("--client-id is required")
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

		creds := client.Credentials{
			Email:        email,
			RefreshToken: addRefreshToken,
			ClientID:     addClientID,
		}
		if err := c.AddAccount(cmd.Context(), creds); err != nil {
			return fmt.Errorf("add account: %w", err)
		}
		if err := sessions.SaveAccount(email, session.SavedAccount{
			RefreshToken: addRefreshToken,
			ClientID:     addClientID,
		}); err != nil {
			return fmt.Errorf("cache account: %w", err)
		}

		fmt.Printf("Added %s\n", email)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addRefreshToken, "refresh-token", "", "OAuth refresh token")
	addCmd.Flags().StringVar(&addClientID, "client-id", "", "OAuth client ID")
	accountsCmd.AddCommand(addCmd)
}
