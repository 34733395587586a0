package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/client"
)

var (
	updateSold   bool
	updateUnsold bool
	updateRemark string
)

var updateCmd = &cobra.Command{
	Use:   "update <email>",
	Short: "Update an account's sold flag or remark",
	Long: `Update the admin-editable fields of one account. Only the fields
given as flags are sent; everything else is left untouched.

Examples:
  mailadm accounts update user@example.com --sold
  mailadm accounts update user@example.com --unsold --remark "returned"
  mailadm accounts update user@example.com --remark ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateSold && updateUnsold {
			return fmt.Errorf("--sold and --unsold are mutually exclusive")
		}

		var patch client.AccountPatch
		if updateSold {
			v := true
			patch.IsSold = &v
		}
		if updateUnsold {
			v := false
			patch.IsSold = &v
		}
		if cmd.Flags().Changed("remark") {
			patch.Remark = &updateRemark
		}
		if patch.IsSold == nil && patch.Remark == nil {
			return fmt.Errorf("nothing to update, pass --sold, --unsold, or --remark")
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

		if err := c.UpdateAccount(cmd.Context(), args[0], patch); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateSold, "sold", false, "mark the account as sold")
	updateCmd.Flags().BoolVar(&updateUnsold, "unsold", false, "mark the account as not sold")
	updateCmd.Flags().StringVar(&updateRemark, "remark", "", "set the account remark")
	accountsCmd.AddCommand(updateCmd)
}
