package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <kind> <identifier>",
		Short: "Check format and check digits without any network call",
		Args:  cobra.ExactArgs(2),
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

			res := a.Engine.Validate(kind, args[1])
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("invalid %s: %s", kind, res.Reason)
			}
			return nil
		},
	}
}
