package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"community-registration/volunteer-forms-backend/internal/filler"
	"community-registration/volunteer-forms-backend/internal/forms"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		backend   string
		template  string
		outputDir string
		keepDocx  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <v1> <v2> <v3> <v4> <v5> <v6>",
		Short: "Fill the positional template with six values",
		Long: `generate replaces Test1..Test6 in the positional template with the six
values and the date token with today's date. The PDF is written to the
output directory and named after the third value.`,
		Args: cobra.ExactArgs(filler.PositionalCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, err := a.converter(backend)
			if err != nil {
				return err
			}

			opts := forms.Options{
				NamedTemplate:      a.cfg.Templates.Named,
				PositionalTemplate: a.cfg.Templates.Positional,
				OutputDir:          a.cfg.Output.Dir,
				ConvertTimeout:     a.cfg.Converter.Timeout,
				KeepTempDocx:       keepDocx || a.cfg.Output.KeepTempDocx,
			}
			if template != "" {
				opts.PositionalTemplate = template
			}
			if outputDir != "" {
				opts.OutputDir = outputDir
			}

			result, err := forms.NewService(opts, converter, nil, a.logger).GeneratePDF(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "converter backend: libreoffice or text (default from config)")
	cmd.Flags().StringVar(&template, "template", "", "positional template (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&keepDocx, "keep-docx", false, "keep the intermediate filled document")
	return cmd
}
