package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"docvec/internal/config"
	"docvec/internal/domain"
	"docvec/internal/llm"
	"docvec/internal/logger"
	"docvec/internal/metrics"
	"docvec/internal/service"
	"docvec/internal/vectorstore"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg *config.AppConfig
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "docvec",
		Short:        "Contextual chunking and vectorization of PDF, CSV and XLSX documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to YAML config file (defaults to ./config.yaml or ~/.config/docvec/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newDeleteCmd(opts),
		newReconcileCmd(opts),
		newUploadCmd(opts),
	)
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	_ = godotenv.Load()

	var err error
	if o.configPath == "" {
		o.cfg, _, err = config.LoadDefault()
	} else {
		o.cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		o.cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		o.cfg.Log.JSON = o.logJSON
	}
	o.log = logger.Init(&logger.Config{
		Level:      logger.ParseLevel(o.cfg.Log.Level),
		Output:     cmd.ErrOrStderr(),
		JSON:       o.cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.ContextWithLogger(ctx, o.log))
	return nil
}

// app holds the process-wide clients shared by the commands that ingest or
// delete in-process.
type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	store    domain.RecordStore
	svc      *service.IngestService
}

func (o *rootOptions) openApp(ctx context.Context) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(registry)

	augmenter, embedder, err := llm.New(o.cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider init failed: %w", err)
	}
	store, err := vectorstore.Open(ctx, o.cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("vector store init failed: %w", err)
	}
	o.log.Debug("components ready",
		"provider", o.cfg.Provider.Type, "embedder", embedder.Name(), "vector_store", o.cfg.VectorStore.Type)
	svc := service.NewIngestService(store, augmenter, embedder, service.OptionsFromConfig(o.cfg.Chunker), rec)
	return &app{registry: registry, metrics: rec, store: store, svc: svc}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.store.Close(context.WithoutCancel(ctx)); err != nil {
		logger.FromContext(ctx).Warn("closing vector store failed", "error", err)
	}
}
