package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify the gateway configuration and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		result, err := gw.Test(ctx, nil)
		if err != nil {
			return err
		}
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Status {
			return fmt.Errorf("configuration test failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
