package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/client"
)

var (
	listJSON        bool
	listCheckStatus bool
	listSearch      string
	listStatus      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered accounts",
	Long: `List all mail accounts registered on the backend.

Filters combine: --search narrows by email or remark substring, and
--status narrows by account state. Both applied together keep only
accounts matching both.

Examples:
  mailadm accounts list
  mailadm accounts list --check-status
  mailadm accounts list --status sold --search resale
  mailadm accounts list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		accounts, err := c.ListAccounts(cmd.Context(), listCheckStatus)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}

		filtered := filterAccounts(accounts, listSearch, listStatus)

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(filtered)
		}

		if len(filtered) == 0 {
			fmt.Println("No accounts match.")
			return nil
		}
		outputAccountsTable(filtered, len(accounts))
		return nil
	},
}

// filterAccounts applies search and status filters conjunctively, the same
// way the interactive table does.
func filterAccounts(accounts []client.Account, search, status string) []client.Account {
	q := strings.ToLower(strings.TrimSpace(search))
	var out []client.Account
	for _, acct := range accounts {
		if q != "" &&
			!strings.Contains(strings.ToLower(acct.Email), q) &&
			!strings.Contains(strings.ToLower(acct.Remark), q) {
			continue
		}
		switch status {
		case "", "all":
		case "active":
			if acct.Status != client.StatusActive {
				continue
			}
		case "inactive":
			if acct.Status == client.StatusActive {
				continue
			}
		case "sold":
			if !acct.IsSold {
				continue
			}
		case "unsold":
			if acct.IsSold {
				continue
			}
		}
		out = append(out, acct)
	}
	return out
}

func outputAccountsTable(accounts []client.Account, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tSTATUS\tSOLD\tREMARK")
	fmt.Fprintln(w, "─────\t──────\t────\t──────")

	for _, acct := range accounts {
		sold := "no"
		if acct.IsSold {
			sold = "yes"
		}
		remark := acct.Remark
		if remark == "" {
			remark = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acct.Email, acct.Status, sold, remark)
	}

	w.Flush()
	if len(accounts) == total {
		fmt.Printf("\n%d account(s)\n", len(accounts))
	} else {
		fmt.Printf("\n%d of %d account(s)\n", len(accounts), total)
	}
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().BoolVar(&listCheckStatus, "check-status", false, "ask the server to re-probe each account's token")
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by email or remark substring")
	listCmd.Flags().StringVar(&listStatus, "status", "all", "filter by state: all, active, inactive, sold, unsold")
	accountsCmd.AddCommand(listCmd)
}
