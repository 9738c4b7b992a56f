package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
	"github.com/ajayykmr/sms-dispatch-go/internal/util"
)

var (
	sendFrom      string
	sendTo        []string
	sendText      string
	sendFlash     bool
	sendReportURL string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message to one or more recipients",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendText == "" {
			return fmt.Errorf("--text is required")
		}
		recipients := sendTo
		if !cfg.Gateway.Account.SkipValidation {
			normalized, err := util.NormalizeMSISDNList(sendTo, 1, cfg.Validation.SMSRecipientsMax)
			if err != nil {
				return err
			}
			recipients = normalized
		}

		from := sendFrom
		if from == "" {
			from = cfg.Gateway.DefaultSender
		}
		if _, err := util.ValidateSender(from); err != nil {
			return err
		}

		msg := models.OutboundMessage{
			Sender:     from,
			Recipients: recipients,
			Message:    sendText,
			Options:    map[string]string{},
		}
		if sendFlash {
			msg.Options[models.OptionFlash] = strconv.FormatBool(true)
		}
		reportURL := sendReportURL
		if reportURL == "" && cfg.Gateway.Account.ReportsEnabled {
			reportURL = cfg.Gateway.ReportURL
		}
		if reportURL != "" {
			msg.Options[models.OptionDeliveryReportURL] = reportURL
		}

		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		result, err := gw.Send(ctx, msg)
		if err != nil {
			return err
		}
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Status {
			return fmt.Errorf("send failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendFrom, "from", "", "sender id (defaults to SMS_DEFAULT_SENDER)")
	sendCmd.Flags().StringSliceVar(&sendTo, "to", nil, "recipient number, repeatable or comma separated")
	sendCmd.Flags().StringVar(&sendText, "text", "", "message body")
	sendCmd.Flags().BoolVar(&sendFlash, "flash", false, "send as flash message")
	sendCmd.Flags().StringVar(&sendReportURL, "report-url", "", "delivery report callback URL")
	_ = sendCmd.MarkFlagRequired("to")
}
