// internal/benchmarks/postgres.go
package benchmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/readiness"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresLoader reads cohorts from a table shaped like:
//
//	industry text, size_band text, typical_score int, metadata jsonb,
//	version text, reference_score int
//
// version and reference_score are denormalized; every row of one import carries the same values.
type PostgresLoader struct {
	db    *database.PostgresClient
	table string
}

func NewPostgresLoader(db *database.PostgresClient, table string) (*PostgresLoader, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid benchmark table name %q", table)
	}
	return &PostgresLoader{db: db, table: table}, nil
}

func (l *PostgresLoader) Name() string { return "postgres" }

func (l *PostgresLoader) Load(ctx context.Context) (*Table, error) {
	query := fmt.Sprintf(`SELECT industry, size_band, typical_score, COALESCE(metadata::text, ''), version, reference_score
		FROM %s ORDER BY industry, size_band`, l.table)

	rows, err := l.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query benchmark cohorts: %w", err)
	}
	defer rows.Close()

	var (
		records   []readiness.BenchmarkRecord
		version   string
		reference int
	)
	for rows.Next() {
		var (
			r        readiness.BenchmarkRecord
			metadata string
		)
		if err := rows.Scan(&r.Industry, &r.SizeBand, &r.TypicalScore, &metadata, &version, &reference); err != nil {
			return nil, fmt.Errorf("scan benchmark cohort: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &r.CohortMetadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s/%s: %w", r.Industry, r.SizeBand, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benchmark cohorts: %w", err)
	}

	return NewTable(version, reference, records)
}

// Save replaces the stored cohorts with t in a single transaction.
func (l *PostgresLoader) Save(ctx context.Context, t *Table) error {
	insert := fmt.Sprintf(`INSERT INTO %s (industry, size_band, typical_score, metadata, version, reference_score)
		VALUES ($1, $2, $3, $4, $5, $6)`, l.table)

	return l.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", l.table)); err != nil {
			return fmt.Errorf("clear benchmark cohorts: %w", err)
		}
		for _, r := range t.Records() {
			var metadata interface{}
			if len(r.CohortMetadata) > 0 {
				raw, err := json.Marshal(r.CohortMetadata)
				if err != nil {
					return fmt.Errorf("encode metadata for %s/%s: %w", r.Industry, r.SizeBand, err)
				}
				metadata = string(raw)
			}
			if _, err := tx.ExecContext(ctx, insert,
				r.Industry, r.SizeBand, r.TypicalScore, metadata, t.Version(), t.ReferenceScore()); err != nil {
				return fmt.Errorf("insert benchmark cohort %s/%s: %w", r.Industry, r.SizeBand, err)
			}
		}
		return nil
	})
}
