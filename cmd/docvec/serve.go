package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docvec/internal/logger"
	"docvec/internal/reconcile"
	"docvec/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var withReconcile bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload and delete HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if logger.ParseLevel(opts.cfg.Log.Level) != logger.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			router := server.NewRouter(a.svc, a.registry, opts.log)
			srv := server.New(opts.cfg.Server.Addr, router)

			var runner *reconcile.Runner
			if withReconcile {
				if runner, err = opts.newRunner(ctx, a, ""); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			if runner != nil {
				g.Go(func() error { return runner.Run(gctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withReconcile, "reconcile", false, "also run the object store reconciliation loop")
	return cmd
}
