package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/batch"
	"github.com/Mu0717/email/internal/client"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Verify a batch of account credentials",
	Long: `Verify candidate accounts against the backend without importing
them. Candidates are read from the given file, or stdin when omitted,
one per line:

  email----password----client_id----refresh_token

Lines that do not have exactly four ----separated fields are skipped.

Examples:
  mailadm accounts verify accounts.txt
  cat accounts.txt | mailadm accounts verify --json`,
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

		results, err := c.VerifyAccounts(cmd.Context(), candidates)
		if err != nil {
			return fmt.Errorf("verify accounts: %w", err)
		}

		if verifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		outputVerifyTable(results, dropped)
		return nil
	},
}

// readBatchInput reads the batch payload from the file argument or stdin.
func readBatchInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func outputVerifyTable(results []client.VerifyResult, dropped int) {
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

	fmt.Printf("\n%d ok, %d failed", succeeded, len(results)-succeeded)
	if dropped > 0 {
		fmt.Printf(", %d malformed line(s) skipped", dropped)
	}
	fmt.Println()
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "output as JSON")
	accountsCmd.AddCommand(verifyCmd)
}
