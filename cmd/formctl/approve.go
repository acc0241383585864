package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"community-registration/volunteer-forms-backend/internal/notifications"
)

func newApproveCmd(a *app) *cobra.Command {
	var email, pdfPath, whatsApp string

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Email the approval message with the filled form attached",
		Long: `approve sends the Hebrew approval email through the configured mail
provider. Delivery failures are logged and do not change the exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := notifications.NewSender(cmd.Context(), a.cfg.Mail)
			if err != nil {
				return err
			}

			approver := notifications.NewApprover(sender, nil, a.cfg.Mail.FromName, a.logger)
			approver.SendApproval(cmd.Context(), email, whatsApp, pdfPath)

			fmt.Fprintln(cmd.OutOrStdout(), "Volunteer approved")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "volunteer email address")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "filled form to attach")
	cmd.Flags().StringVar(&whatsApp, "whatsapp", "", "WhatsApp group link for the volunteer's area")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
