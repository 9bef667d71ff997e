package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/coda-mcp/internal/coda"
	"github.com/dusk-indust/coda-mcp/internal/config"
	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/mcptools"
	"github.com/dusk-indust/coda-mcp/internal/metrics"
	"github.com/dusk-indust/coda-mcp/internal/pageexport"
)

func newServeCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run coda-mcp as a Model Context Protocol server.

The server speaks stdio by default. Pass --http to serve the streamable HTTP
transport instead, and --metrics-addr to expose Prometheus metrics.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "coda": {
        "command": "coda-mcp",
        "args": ["serve"],
        "env": {"CODA_API_TOKEN": "..."}
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *flags)
		},
	}
	cmd.Flags().StringVar(&flags.HTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runServe(ctx context.Context, flags cliFlags) error {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.HTTPAddr != "" {
		cfg.Server.HTTPAddr = flags.HTTPAddr
	}
	if flags.MetricsAddr != "" {
		cfg.Server.MetricsAddr = flags.MetricsAddr
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := coda.NewClient(cfg.Coda.BaseURL, cfg.Coda.APIToken, append(cfg.ClientOptions(),
		coda.WithLogger(log.With(logger.String("component", "coda"))),
		coda.WithMetrics(m),
		coda.WithUserAgent("coda-mcp/"+version),
	)...)
	exporter, err := pageexport.New(client, cfg.PageExport(),
		pageexport.WithLogger(log.With(logger.String("component", "pageexport"))),
		pageexport.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	mcptools.SetVersion(version)
	server := mcptools.NewServer(mcptools.NewService(client, exporter,
		mcptools.WithLogger(log.With(logger.String("component", "mcptools"))),
		mcptools.WithMetrics(m),
	))

	log.Info("Starting coda-mcp",
		logger.String("version", version),
		logger.String("base_url", client.BaseURL()),
		logger.String("transport", transportName(cfg.Server.HTTPAddr)),
	)
	log.Debug("Configuration", logger.String("config", cfg.String()))

	// The metrics listener stops when the MCP transport returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Server.MetricsAddr != "" {
		g.Go(func() error {
			log.Info("Serving metrics", logger.String("addr", cfg.Server.MetricsAddr))
			return mcptools.ServeMetrics(gctx, cfg.Server.MetricsAddr, m.Handler())
		})
	}
	g.Go(func() error {
		defer cancel()
		if cfg.Server.HTTPAddr != "" {
			log.Info("Serving MCP over HTTP", logger.String("addr", cfg.Server.HTTPAddr))
			return mcptools.RunHTTP(gctx, server, cfg.Server.HTTPAddr)
		}
		return mcptools.RunStdio(gctx, server)
	})
	return g.Wait()
}

func transportName(httpAddr string) string {
	if httpAddr != "" {
		return "http"
	}
	return "stdio"
}
