package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// Command applies the embedded schema DDL to the target database. The
// statements are idempotent, so re-running against an existing database is
// safe.
func Command() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Apply the database schema",
		Long:  "Create the business_owners, payments and access_control tables if they do not exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			url := databaseURL
			if url == "" {
				url = os.Getenv("DATABASE_URL")
			}
			if url == "" {
				return fmt.Errorf("database URL required (--database-url or DATABASE_URL)")
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: url})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.Bootstrap(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	return c
}
