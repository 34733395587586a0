package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored admin credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := openSession()
		if err != nil {
			return err
		}
		if !sessions.HasCredential() {
			fmt.Println("Not logged in.")
			return nil
		}
		if err := sessions.ClearCredential(); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
