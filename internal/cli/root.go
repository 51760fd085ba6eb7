// Package cli implements the consulta command line tool.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/app"
	"github.com/boddenberg/br-lookup-go/internal/config"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
)

// builder assembles the engine for one command invocation.
type builder func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.App, error)

func defaultBuilder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.App, error) {
	return app.Build(ctx, cfg, logger, app.Options{ForceMemoryCache: true})
}

func Execute() {
	cmd := newRootCmd(defaultBuilder)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
	envFile  string
	build    builder
}

func (o *rootOptions) load() (*config.Config, *zap.Logger) {
	_ = config.LoadDotEnv(o.envFile)
	cfg := config.Load()
	return cfg, observability.NewLogger(o.logLevel)
}

func newRootCmd(build builder) *cobra.Command {
	opts := &rootOptions{build: build}

	cmd := &cobra.Command{
		Use:          "consulta",
		Short:        "Resolve and validate Brazilian identifiers (CEP, CNPJ, CPF, DDD, phone, bank)",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(resolveCmd(opts))
	cmd.AddCommand(validateCmd(opts))
	cmd.AddCommand(tokenCmd(opts))
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
