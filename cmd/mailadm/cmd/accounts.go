package cmd

import (
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage registered mail accounts",
	Long: `Manage the mail accounts registered on the backend: list and
filter them, add or import new ones, tag them as sold, and remove them.`,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}
