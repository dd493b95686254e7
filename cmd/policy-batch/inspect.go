package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/policy-extract/internal/bootstrap"
)

var historyBatch string
var historyLimit int

var masterCmd = &cobra.Command{
	Use:   "master",
	Short: "List insurance companies and policy categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cache, err := bootstrap.MasterData(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("MASTER_DATA_URL is not configured")
		}
		defer func() { _ = cache.Close() }()

		m, err := client.Load(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY ID\tNAME")
		for _, c := range m.Companies {
			fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
		}
		fmt.Fprintln(w, "\nCATEGORY ID\tNAME")
		for _, c := range m.Categories {
			fmt.Fprintf(w, "%d\t%s\n", c.ID, c.CategoryName)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extract_job ledger rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := bootstrap.OpenLedger(cmd.Context(), cfg.Database, false, "", logger)
		if err != nil {
			return err
		}
		defer ledger.Close(logger)
		if ledger.Service == nil {
			return fmt.Errorf("DB_URL is not configured")
		}
		jobs, err := ledger.Service.History(cmd.Context(), historyBatch, historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTATUS\tFILE\tCONFIDENCE\tFINDINGS\tERROR")
		for _, j := range jobs {
			conf, msg := "-", ""
			if j.Confidence != nil {
				conf = fmt.Sprintf("%.1f", *j.Confidence)
			}
			if j.ErrorMessage != nil {
				msg = *j.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				j.StartedAt.Local().Format(time.DateTime), j.Status, j.Filename, conf, j.FindingCount, msg)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "only rows of this batch id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum rows")
	rootCmd.AddCommand(masterCmd, historyCmd)
}
