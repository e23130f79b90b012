package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/session"
	pct "connector-workers/internal/workers/connector/process-chat-turn"
)

func turnCMD(cfgPath *string) *cobra.Command {
	var requestPath string
	var sessionID string
	var message string

	var turn = &cobra.Command{
		Use:   "turn",
		Short: "Run one chat turn from a request JSON file",
		Example: `  connector-cli turn --request request.json
  cat request.json | connector-cli turn --request - --message "busco inversores de fintech"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			input, err := readTurnRequest(requestPath)
			if err != nil {
				return err
			}
			if sessionID != "" {
				input.SessionID = sessionID
			}
			if message != "" {
				input.UserMessage = message
			}

			ctx := cmd.Context()
			store, closeStore, err := session.NewFromConfig(cfg, log)
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			defer closeStore()

			sites, err := llm.NewCallSites(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("completion provider: %w", err)
			}

			turnCfg := pct.FromAppConfig(cfg)
			handler := pct.NewHandler(turnCfg, pct.Dependencies{
				Store:     store,
				CallSites: sites,
				Logger:    log,
			})

			ctx, cancel := context.WithTimeout(ctx, turnCfg.Timeout)
			defer cancel()

			out, err := handler.Execute(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	turn.Flags().StringVarP(&requestPath, "request", "r", "", "request JSON file, or - for stdin")
	turn.Flags().StringVar(&sessionID, "session", "", "override the request's sessionId")
	turn.Flags().StringVarP(&message, "message", "m", "", "override the request's userMessage")
	_ = turn.MarkFlagRequired("request")

	return turn
}

func readTurnRequest(path string) (*pct.Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var input pct.Input
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &input, nil
}
