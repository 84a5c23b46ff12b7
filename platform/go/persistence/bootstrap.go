package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	sqlassets "github.com/vcp-platform/vcp-backend/database"
)

// Bootstrap applies the embedded DDL in a single transaction, in dependency
// order: business_owners, payments (+ renewal links), access_control. SQL is
// embedded at build time so binaries stay self-contained. The helper is
// idempotent and intended for CLI bootstrap and tests.
func Bootstrap(ctx context.Context, pool txBeginner) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.BusinessOwnersSQL)...)
	statements = append(statements, splitStatements(sqlassets.PaymentsSQL)...)
	statements = append(statements, splitStatements(sqlassets.AccessControlSQL)...)

	return withTx(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply ddl: %w", err)
			}
		}
		return nil
	})
}

func splitStatements(blob string) []string {
	raw := strings.Split(blob, ";")
	statements := make([]string, 0, len(raw))
	for _, chunk := range raw {
		stmt := strings.TrimSpace(chunk)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
