package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/logger"
)

func main() {
	var cfgPath string

	var root = &cobra.Command{
		Use:           "connector-cli",
		Short:         "Operator tools for the connector matching workers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default: configs/config.yaml)")

	root.AddCommand(turnCMD(&cfgPath), extractCMD(&cfgPath), suggestCMD(&cfgPath), historyCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// newLogger writes to stderr so command output stays pipeable.
func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewZapAdapter(logger.New(cfg.Logging.Level, "console"))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
