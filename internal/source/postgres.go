package source

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/realty/internal/domain"
)

// Querier is the subset of pgxpool.Pool used by PgReader.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgReader reads snapshots from a PostgreSQL table with a snapshot_id column;
// the remaining columns are returned as the raw table.
type PgReader struct {
	db    Querier
	table string
}

// NewPgReader creates a reader over table.
func NewPgReader(db Querier, table string) *PgReader {
	return &PgReader{db: db, table: table}
}

// Fetch selects the rows of snapshotID.
func (r *PgReader) Fetch(ctx context.Context, snapshotID string) (domain.RawTable, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE snapshot_id = $1`, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.db.Query(ctx, query, snapshotID)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("querying snapshot %s: %w", snapshotID, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	table := domain.RawTable{Columns: make([]string, len(fields))}
	for i, f := range fields {
		table.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("scanning snapshot %s row: %w", snapshotID, err)
		}
		for i, v := range values {
			values[i] = cellValue(v)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return domain.RawTable{}, fmt.Errorf("iterating snapshot %s: %w", snapshotID, err)
	}

	if len(table.Rows) == 0 {
		return domain.RawTable{}, fmt.Errorf("snapshot %s: %w", snapshotID, ErrSnapshotNotFound)
	}
	return table, nil
}

// SnapshotIDs lists the distinct snapshot ids in the table.
func (r *PgReader) SnapshotIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT snapshot_id FROM %s ORDER BY snapshot_id`, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot ids: %w", err)
	}
	return ids, nil
}

// cellValue unwraps pgtype values such as numeric into their driver form
// (a decimal string) so the normalizer can parse them.
func cellValue(v any) any {
	valuer, ok := v.(driver.Valuer)
	if !ok {
		return v
	}
	dv, err := valuer.Value()
	if err != nil {
		return nil
	}
	return dv
}
