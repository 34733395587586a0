package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/batch"
	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/session"
)

var importNoVerify bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Verify and import a batch of accounts",
	Long: `Import candidate accounts in bulk. Candidates are read from the
given file, or stdin when omitted, in the same format as 'accounts
verify'. Each candidate is verified first and only verified accounts
are imported; --no-verify imports every parseable line as-is.

Imported accounts are cached locally so they can be opened in the TUI
mail reader.

Examples:
  mailadm accounts import accounts.txt
  mailadm accounts import accounts.txt --no-verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readBatchInput(args)
		if err != nil {
			return err
		}
		candidates, dropped := batch.ParseStrict(raw)
		if len(candidates) == 0 {
			return fmt.Errorf("no parseable lines in input")
		}
		if dropped > 0 {
			fmt.Printf("Skipped %d malformed line(s)\n", dropped)
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

		toImport := candidates
		if !importNoVerify {
			results, err := c.VerifyAccounts(cmd.Context(), candidates)
			if err != nil {
				return fmt.Errorf("verify accounts: %w", err)
			}
			toImport = toImport[:0]
			for _, r := range results {
				if r.Success() && r.Credentials != nil {
					toImport = append(toImport, *r.Credentials)
				} else {
					fmt.Printf("Skipping %s: verification failed\n", r.Email)
				}
			}
			if len(toImport) == 0 {
				return fmt.Errorf("no accounts passed verification")
			}
		}

		results, err := c.ImportAccounts(cmd.Context(), toImport)
		if err != nil {
			return fmt.Errorf("import accounts: %w", err)
		}

		cached := make(map[string]session.SavedAccount, len(toImport))
		for _, creds := range toImport {
			cached[creds.Email] = session.SavedAccount{
				RefreshToken: creds.RefreshToken,
				ClientID:     creds.ClientID,
			}
		}
		if err := sessions.SaveAccounts(cached); err != nil {
			return fmt.Errorf("cache accounts: %w", err)
		}

		outputImportTable(results)
		return nil
	},
}

func outputImportTable(results []client.ImportResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tRESULT\tMESSAGE")
	fmt.Fprintln(w, "─────\t──────\t───────")

	succeeded := 0
	for _, r := range results {
		outcome := "failed"
		if r.Success() {
			outcome = "ok"
			succeeded++
		}
		message := r.Message
		if message == "" {
			message = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Email, outcome, message)
	}
	w.Flush()

	fmt.Printf("\nImported %d of %d account(s)\n", succeeded, len(results))
}

func init() {
	importCmd.Flags().BoolVar(&importNoVerify, "no-verify", false, "import without verifying first")
	accountsCmd.AddCommand(importCmd)
}
