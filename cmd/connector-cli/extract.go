package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"connector-workers/internal/common/llm"
	ext "connector-workers/internal/workers/connector/extract-search-criteria"
)

func extractCMD(cfgPath *string) *cobra.Command {
	var rulesOnly bool

	var extract = &cobra.Command{
		Use:   "extract [message]",
		Short: "Print the search criteria extracted from a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			var completer llm.Completer
			if !rulesOnly {
				sites, err := llm.NewCallSites(cmd.Context(), cfg, log)
				if err != nil {
					return err
				}
				completer = sites.Extraction
			}

			extCfg := ext.FromAppConfig(cfg)
			ctx, cancel := context.WithTimeout(cmd.Context(), extCfg.Timeout)
			defer cancel()

			out, err := ext.NewHandler(extCfg, completer, log).Execute(ctx, &ext.Input{
				Message: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	extract.Flags().BoolVar(&rulesOnly, "rules", false, "skip the completion service and use the keyword tables")

	return extract
}
