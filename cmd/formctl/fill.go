package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/filler"
	"community-registration/volunteer-forms-backend/internal/forms"
)

func newFillCmd(a *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "fill <template> <first-name> <last-name> <id-number> <phone> <mobile-phone> <docx-out> <pdf-out>",
		Short: "Fill the named volunteer form",
		Long: `fill appends each value after its Hebrew label in the template, saves the
filled document to docx-out and converts it to pdf-out.`,
		Args: cobra.ExactArgs(8),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := filler.NamedFields{
				FirstName:   args[1],
				LastName:    args[2],
				IDNumber:    args[3],
				Phone:       args[4],
				MobilePhone: args[5],
			}
			docxPath, pdfPath := args[6], args[7]

			converter, err := a.converter(backend)
			if err != nil {
				return err
			}

			ctx, cancel := a.convertContext(cmd.Context())
			defer cancel()

			stats, err := forms.FillFile(ctx, converter, args[0], fields.Substitutions(), filler.Append, docxPath, pdfPath)
			if err != nil {
				return err
			}

			a.logger.Debug("Filled volunteer form",
				zap.Int("paragraphs", stats.Paragraphs),
				zap.Int("cells", stats.Cells))
			fmt.Fprintln(cmd.OutOrStdout(), pdfPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "converter backend: libreoffice or text (default from config)")
	return cmd
}
