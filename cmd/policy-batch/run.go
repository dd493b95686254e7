package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/bootstrap"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	"github.com/joseph-ayodele/policy-extract/internal/export"
	"github.com/joseph-ayodele/policy-extract/internal/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/llm/provider"
	ingestsvc "github.com/joseph-ayodele/policy-extract/internal/services/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/summary"
)

var (
	runCompany    string
	runCategory   string
	runOut        string
	runFormat     string
	runWipe       bool
	runInMem      bool
	runSkipHidden bool
	runNoProgress bool
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Ingest, extract, validate and export a batch",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runCompany, "company", "", "insurance company (required)")
	runCmd.Flags().StringVar(&runCategory, "category", "", "policy category (required)")
	runCmd.Flags().StringVarP(&runOut, "out", "o", ".", "directory to write exports into")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "csv", "export format: csv, xlsx or both")
	runCmd.Flags().BoolVar(&runWipe, "wipe", true, "wipe the batch after a successful export")
	runCmd.Flags().BoolVar(&runInMem, "inmem", false, "record the job ledger in an in-memory sqlite database")
	runCmd.Flags().BoolVar(&runSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the progress bar")
	_ = runCmd.MarkFlagRequired("company")
	_ = runCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(runCmd)
}

func exportFormats(f string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case export.FormatCSV:
		return []string{export.FormatCSV}, nil
	case export.FormatXLSX:
		return []string{export.FormatXLSX}, nil
	case "both":
		return []string{export.FormatCSV, export.FormatXLSX}, nil
	default:
		return nil, fmt.Errorf("unknown --format %q (csv, xlsx or both)", f)
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	formats, err := exportFormats(runFormat)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := provider.New(cfg.LLM, logger)
	if err != nil {
		return err
	}

	ledger, err := bootstrap.OpenLedger(ctx, cfg.Database, runInMem, extractor.Model(), logger)
	if err != nil {
		return err
	}
	defer ledger.Close(logger)

	b := batch.New(
		batch.WithConfidence(cfg.Batch.BaselineConfidence),
		batch.WithLogger(logger),
	)
	if ledger.Service != nil {
		b.Subscribe(ledger.Service.Listener())
	}
	b.Select(strings.TrimSpace(runCompany), strings.TrimSpace(runCategory))

	ingestService := ingestsvc.NewService(ingest.NewFSIngestor(logger), b, nil, logger)
	res, err := ingestService.IngestPaths(ctx, ingestsvc.PathIngestRequest{Paths: args, SkipHidden: runSkipHidden})
	if res != nil {
		printIngest(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}

	var progress *progressReporter
	if !runNoProgress {
		progress = newProgressReporter(len(res.TaskIDs))
		b.Subscribe(progress.Listener())
	}

	if err := process(ctx, b, extractor); err != nil {
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	out := cmd.OutOrStdout()
	printTasks(out, b.Tasks())
	sum := summary.Summarize(b.Tasks())
	if sum == nil {
		return errors.New("no document was extracted successfully")
	}
	fmt.Fprintf(out, "\n%s: %d documents, average confidence %.1f%%, %d findings (%s)\n",
		sum.Label(), sum.Documents, sum.AverageConfidence, sum.TotalFindings, sum.Status)

	if err := os.MkdirAll(runOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	exporter := export.NewExporter(export.WithLogger(logger))
	for _, f := range formats {
		art, err := exporter.Export(f, b.Tasks(), b.Selection())
		if err != nil {
			return err
		}
		path := filepath.Join(runOut, art.Filename)
		if err := os.WriteFile(path, art.Data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "wrote %s (%d rows)\n", path, art.Rows)
	}

	if runWipe {
		b.Clear()
		logger.Info("batch wiped after export")
	}
	return nil
}

// process drains the batch in intake order, or through the worker pool when
// more than one worker is configured.
func process(ctx context.Context, b *batch.Batch, ex provider.Extractor) error {
	if cfg.Batch.Workers <= 1 {
		_, err := b.Process(ctx, ex)
		return err
	}
	q := async.NewProcessorQueue(b, ex, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)
	for i := 0; i < cfg.Batch.Workers; i++ {
		if err := q.Enqueue(ctx, async.Job{}); err != nil {
			q.Shutdown(context.Background())
			return err
		}
	}
	q.Shutdown(ctx)
	return ctx.Err()
}

func printIngest(w io.Writer, res *ingestsvc.IngestResult) {
	st := res.Statistics
	fmt.Fprintf(w, "ingest: scanned=%d matched=%d added=%d failed=%d\n", st.Scanned, st.Matched, len(res.TaskIDs), st.Failed)
	for _, r := range res.Results {
		if r.Err != "" {
			fmt.Fprintf(w, "  skipped %s: %s\n", r.SourcePath, r.Err)
		}
	}
}

func printTasks(w io.Writer, tasks []entity.DocumentTask) {
	for _, t := range tasks {
		switch t.Status {
		case constants.TaskDone:
			fmt.Fprintf(w, "%-40s done   %5.1f%%  %d findings\n", t.Source.Name, t.Confidence, len(t.Findings))
			for _, f := range t.Findings {
				field := "(cross-field)"
				if f.Field != nil {
					field = string(*f.Field)
				}
				fmt.Fprintf(w, "    [%s] %s: %s\n", f.Severity, field, f.Message)
			}
		case constants.TaskError:
			fmt.Fprintf(w, "%-40s error  %s\n", t.Source.Name, t.ErrorDetail)
		default:
			fmt.Fprintf(w, "%-40s %s\n", t.Source.Name, t.Status)
		}
	}
}
