package sweepcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	billingrepo "github.com/vcp-platform/vcp-backend/domains/billing/be/repo"
	"github.com/vcp-platform/vcp-backend/domains/billing/be/sweep"
	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
)

// Command runs one expiry sweep and prints the report. Useful for manual
// reconciliation and cron-style deployments that do not keep the API running.
func Command() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Revoke access for owners with expired subscriptions",
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

			paymentStore, err := persistence.NewPaymentStore(pool)
			if err != nil {
				return fmt.Errorf("init payment store: %w", err)
			}
			accessStore, err := persistence.NewAccessStore(pool)
			if err != nil {
				return fmt.Errorf("init access store: %w", err)
			}

			repo := billingrepo.NewPostgresRepository(paymentStore, accessStore)
			report, err := sweep.New(repo, zap.NewNop()).RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("run sweep: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated=%d repaired=%d\n", report.Updated, report.Repaired)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	return c
}
