package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/store/sqlite"
)

var (
	reportsMessageIDs []string
	reportsBulkID     string
	reportsStored     bool
	reportsRecipient  string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Fetch delivery reports from the provider or the local report store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		if reportsStored {
			return listStored(ctx, reportsRecipient, reportsMessageIDs)
		}

		reports, err := gw.PullDeliveryReports(ctx, gateway.ReportQuery{
			MessageIDs: reportsMessageIDs,
			BulkID:     reportsBulkID,
		})
		if err != nil {
			return err
		}
		return printJSON(reports)
	},
}

func listStored(ctx context.Context, recipient string, messageIDs []string) error {
	if recipient == "" && len(messageIDs) == 0 {
		return fmt.Errorf("--stored needs --recipient or --message-id")
	}

	store, err := sqlite.Open(ctx, cfg.Webhook.StorePath, sqlite.WithLogger(log))
	if err != nil {
		return err
	}
	defer store.Close()

	if recipient != "" {
		reports, err := store.ListByRecipient(ctx, recipient)
		if err != nil {
			return err
		}
		return printJSON(reports)
	}

	var all []sqlite.StoredReport
	for _, id := range messageIDs {
		reports, err := store.ListByMessageID(ctx, gw.Name(), id)
		if err != nil {
			return err
		}
		all = append(all, reports...)
	}
	return printJSON(all)
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.Flags().StringSliceVar(&reportsMessageIDs, "message-id", nil, "provider message id, repeatable")
	reportsCmd.Flags().StringVar(&reportsBulkID, "bulk-id", "", "provider bulk id")
	reportsCmd.Flags().BoolVar(&reportsStored, "stored", false, "read reports received by the webhook instead of polling the provider")
	reportsCmd.Flags().StringVar(&reportsRecipient, "recipient", "", "recipient number (with --stored)")
}
