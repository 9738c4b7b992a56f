package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceRaw bool

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account credit balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		if !balanceRaw {
			_, err := fmt.Fprintln(out, gw.Balance(ctx))
			return err
		}
		credits, err := gw.Credits(ctx)
		if err != nil {
			return err
		}
		return printJSON(credits)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVar(&balanceRaw, "raw", false, "print the full credits response")
}
