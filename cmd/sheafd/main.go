/*
Copyright 2026 The Symmetrix Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// sheafd is the placement engine daemon. It bootstraps resource units
// from the host, runs the background consistency diagnostic, and serves
// status and metrics over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/engine"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/logging"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/status"
	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	listenAddr  string
	logLevel    string
	development bool
	noBootstrap bool
)

var rootCmd = &cobra.Command{
	Use:          "sheafd",
	Short:        "Sheaf-theoretic resource placement engine daemon",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the daemon version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration file and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		doc, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	},
}

func registerFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	flags.StringVar(&listenAddr, "listen-addr", "", "status/metrics bind address (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.BoolVar(&development, "dev", false, "use human-readable console logging")
}

func init() {
	registerFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().BoolVar(&noBootstrap, "no-bootstrap", false, "skip registering units from host CPUs")

	rootCmd.AddCommand(versionCmd, checkConfigCmd)
}

func loadConfig() (*config.EngineConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if development {
		cfg.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting sheafd", zap.String("version", version))

	sys, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := sys.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !noBootstrap {
		if _, err := sys.BootstrapHostUnits(ctx); err != nil {
			return fmt.Errorf("bootstrapping host units: %w", err)
		}
	}

	sys.Start()
	defer sys.Stop()

	srv := status.New(sys, prometheus.DefaultGatherer, cfg.ListenAddr, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
