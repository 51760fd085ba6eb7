package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

func resolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <kind> <identifier>",
		Short: "Resolve an identifier to its canonical record",
		Example: `  consulta resolve cep 01310-100
  consulta resolve cnpj 11.222.333/0001-81
  consulta resolve telefone "(61) 98143-7533"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}

			cfg, logger := opts.load()
			defer logger.Sync()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := opts.build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Engine.Resolve(ctx, kind, args[1])
			if err != nil {
				var nf *domain.ErrNotFound
				if errors.As(err, &nf) {
					for _, f := range nf.Failures {
						fmt.Fprintln(cmd.ErrOrStderr(), "  "+f.String())
					}
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}
