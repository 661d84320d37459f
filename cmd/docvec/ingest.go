package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"docvec/internal/service"
	"docvec/internal/tui"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest local PDF, CSV or XLSX files into the vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			var outcomes []tui.Outcome
			if !plain && isTerminal(cmd.OutOrStdout()) {
				outcomes, err = tui.Run(ctx, a.svc, files)
				if err != nil {
					return err
				}
			} else {
				outcomes = ingestPlain(ctx, cmd, a.svc, files)
			}
			return summarize(outcomes, len(files))
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per document instead of the progress view")
	return cmd
}

func readFiles(paths []string) ([]tui.File, error) {
	files := make([]tui.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, tui.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func ingestPlain(ctx context.Context, cmd *cobra.Command, svc *service.IngestService, files []tui.File) []tui.Outcome {
	outcomes := make([]tui.Outcome, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		res, err := svc.Ingest(ctx, f.Name, f.Data)
		outcomes = append(outcomes, tui.Outcome{Name: f.Name, Result: res, Err: err})
		if err != nil {
			cmd.Printf("%s: failed: %v\n", f.Name, err)
			continue
		}
		cmd.Printf("%s: %d records, document_id %s\n", f.Name, res.Records, res.DocumentID)
	}
	return outcomes
}

func summarize(outcomes []tui.Outcome, total int) error {
	failed := total - len(outcomes)
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, total)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
