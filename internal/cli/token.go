package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/br-lookup-go/internal/service"
)

func tokenCmd(opts *rootOptions) *cobra.Command {
	var subject string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token for the cache routes (needs ADMIN_JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := opts.load()
			defer logger.Sync()

			token, err := service.NewAdminAuth(cfg.AdminJWTSecret, ttl).Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVarP(&subject, "subject", "s", "cli", "token subject")
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return c
}
