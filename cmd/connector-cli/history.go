package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/session"
)

func historyCMD(cfgPath *string) *cobra.Command {
	var sessionID string
	var asJSON bool
	var clearSession bool

	var history = &cobra.Command{
		Use:   "history",
		Short: "Print or clear a session transcript in the session store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Connector.Session.Backend != config.SessionBackendRedis {
				return fmt.Errorf("history needs the redis session backend, got %q", cfg.Connector.Session.Backend)
			}

			store, closeStore, err := session.NewFromConfig(cfg, newLogger(cfg))
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			defer closeStore()

			if clearSession {
				if err := store.Delete(cmd.Context(), sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s cleared\n", sessionID)
				return nil
			}

			sess, err := store.Get(cmd.Context(), sessionID)
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session %q not found or expired", sessionID)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(sess)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Transcript())
			return nil
		},
	}
	history.Flags().StringVarP(&sessionID, "session", "s", "", "session id")
	history.Flags().BoolVar(&asJSON, "json", false, "print the stored session as JSON")
	history.Flags().BoolVar(&clearSession, "clear", false, "delete the session instead of printing it")
	_ = history.MarkFlagRequired("session")

	return history
}
