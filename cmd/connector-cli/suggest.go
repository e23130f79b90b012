package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"connector-workers/internal/common/llm"
	scn "connector-workers/internal/workers/connector/suggest-connections"
)

func suggestCMD(cfgPath *string) *cobra.Command {
	var requestPath string
	var limit int

	var suggest = &cobra.Command{
		Use:   "suggest",
		Short: "Suggest connections for a profile without a chat message",
		Example: `  connector-cli suggest --request suggest.json
  connector-cli suggest --request - --limit 3 < suggest.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			input, err := readSuggestRequest(requestPath)
			if err != nil {
				return err
			}
			if limit > 0 {
				input.Limit = limit
			}

			ctx := cmd.Context()
			sites, err := llm.NewCallSites(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("completion provider: %w", err)
			}

			suggestCfg := scn.FromAppConfig(cfg)
			handler := scn.NewHandler(suggestCfg, sites.Disambiguation, log)

			ctx, cancel := context.WithTimeout(ctx, suggestCfg.Timeout)
			defer cancel()

			out, err := handler.Execute(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	suggest.Flags().StringVarP(&requestPath, "request", "r", "", "request JSON file with userProfile and candidatePool, or - for stdin")
	suggest.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of suggestions")
	_ = suggest.MarkFlagRequired("request")

	return suggest
}

func readSuggestRequest(path string) (*scn.Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var input scn.Input
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &input, nil
}
