package cmd

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate as administrator",
	Long: `Authenticate against the backend with the admin password.

The password is read interactively (never via flag, to keep it out of
shell history and process listings), validated against the server, and
stored in the mailadm home directory for subsequent commands.`,
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

		fmt.Print("Admin password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password := string(raw)
		if password == "" {
			return fmt.Errorf("password is required")
		}

		if err := c.ProbeLogin(cmd.Context(), password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := sessions.SetCredential(password); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}

		logger.Debug("admin credential stored", "home", cfg.HomeDir)
		fmt.Println("Logged in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
