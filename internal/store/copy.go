package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// copyRows bulk-inserts rows into a table using the PostgreSQL COPY protocol.
// A firm's authorization rows are always rewritten together, so they go in
// as one copy instead of row-by-row inserts.
func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "store: COPY INTO %s", table)
	}
	return n, nil
}
