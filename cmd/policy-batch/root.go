package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/policy-extract/internal/common"
)

var (
	cfgFile string
	verbose bool

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "policy-batch",
	Short: "Extract insurance policy fields from a folder of documents",
	Long: `policy-batch loads PDF and image policy documents, extracts the 29 policy
fields with the configured model, validates every record and writes the
results as CSV and/or XLSX. The in-memory batch is wiped after export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to read .env", "error", err)
		}
		var err error
		cfg, err = common.LoadConfig(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
