package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docvec/internal/client"
	"docvec/internal/objectstore"
	"docvec/internal/reconcile"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var once bool
	var serverURL string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Align the vector store with the object store",
		Long: `Deletes documents that are indexed but no longer present in the object store
and ingests documents present in the object store but not yet indexed. Uploads go
through the HTTP API when --server (or reconcile.server) is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if once {
				rec, err := opts.newReconciler(ctx, a, serverURL)
				if err != nil {
					return err
				}
				rep, err := rec.RunOnce(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("deleted %d documents (%d records), uploaded %d, skipped %d, failed %d\n",
					len(rep.Deleted), rep.DeletedRecords, len(rep.Uploaded), len(rep.Skipped), len(rep.Failed))
				if len(rep.Failed) > 0 {
					return fmt.Errorf("reconcile: %d documents failed: %v", len(rep.Failed), rep.Failed)
				}
				return nil
			}
			runner, err := opts.newRunner(ctx, a, serverURL)
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	cmd.Flags().StringVar(&serverURL, "server", "", "upload through this docvec server instead of in-process")
	return cmd
}

func (o *rootOptions) newReconciler(ctx context.Context, a *app, serverURL string) (*reconcile.Reconciler, error) {
	objects, err := objectstore.Open(ctx, o.cfg.Reconcile)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}
	if serverURL == "" {
		serverURL = o.cfg.Reconcile.Server
	}
	var uploader reconcile.Uploader = a.svc
	if serverURL != "" {
		uploader = client.New(serverURL, 0)
	}
	return reconcile.New(objects, a.svc, uploader, a.metrics), nil
}

func (o *rootOptions) newRunner(ctx context.Context, a *app, serverURL string) (*reconcile.Runner, error) {
	interval, err := o.cfg.ReconcileInterval()
	if err != nil {
		return nil, err
	}
	rec, err := o.newReconciler(ctx, a, serverURL)
	if err != nil {
		return nil, err
	}
	return reconcile.NewRunner(rec, interval), nil
}
