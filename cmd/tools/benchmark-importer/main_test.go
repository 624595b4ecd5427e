// cmd/tools/benchmark-importer/main_test.go
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/readiness"
)

var cohortColumns = []string{"industry", "size_band", "typical_score", "metadata", "version", "reference_score"}

func setupLoader(t *testing.T) (*benchmarks.PostgresLoader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loader, err := benchmarks.NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
	require.NoError(t, err)
	return loader, mock
}

func writeTable(t *testing.T, table *benchmarks.Table) string {
	t.Helper()
	data, err := yaml.Marshal(table)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "benchmarks.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func smallTable(t *testing.T) *benchmarks.Table {
	t.Helper()
	table, err := benchmarks.NewTable("2025.4", 52, []readiness.BenchmarkRecord{
		{Industry: "Retail", SizeBand: "1-10", TypicalScore: 41},
	})
	require.NoError(t, err)
	return table
}

func TestImportBenchmarks_SavesAndVerifies(t *testing.T) {
	loader, mock := setupLoader(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM readiness_benchmarks").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO readiness_benchmarks").
		WithArgs("Retail", "1-10", 41, sqlmock.AnyArg(), "2025.4", 52).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT industry, size_band").
		WillReturnRows(sqlmock.NewRows(cohortColumns).AddRow("Retail", "1-10", 41, "", "2025.4", 52))

	require.NoError(t, importBenchmarks(context.Background(), loader, smallTable(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBenchmarks_DetectsVersionMismatch(t *testing.T) {
	loader, mock := setupLoader(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM readiness_benchmarks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO readiness_benchmarks").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT industry, size_band").
		WillReturnRows(sqlmock.NewRows(cohortColumns).AddRow("Retail", "1-10", 41, "", "2025.3", 52))

	err := importBenchmarks(context.Background(), loader, smallTable(t))
	assert.ErrorContains(t, err, "verify import")
}

func TestExportBenchmarks(t *testing.T) {
	loader, mock := setupLoader(t)
	mock.ExpectQuery("SELECT industry, size_band").
		WillReturnRows(sqlmock.NewRows(cohortColumns).
			AddRow("Retail", "1-10", 41, `{"source":"survey"}`, "2025.4", 52))

	data, err := exportBenchmarks(context.Background(), loader)
	require.NoError(t, err)

	table, err := benchmarks.ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, "2025.4", table.Version())
	rec, ok := table.Cohort("retail", "1-10")
	require.True(t, ok)
	assert.Equal(t, "survey", rec.CohortMetadata["source"])
}

func TestValidateBenchmarks(t *testing.T) {
	report, err := validateBenchmarks(writeTable(t, benchmarks.Default()))
	require.NoError(t, err)
	assert.Contains(t, report, "is valid")

	_, err = validateBenchmarks(writeTable(t, smallTable(t)))
	assert.ErrorContains(t, err, "no Other cohort for size bands")
}

func TestSetCohort(t *testing.T) {
	path := writeTable(t, benchmarks.Default())

	require.NoError(t, setCohort(path, "2025.2", readiness.BenchmarkRecord{
		Industry: "professional services", SizeBand: "51-200", TypicalScore: 70,
	}))
	require.NoError(t, setCohort(path, "2025.3", readiness.BenchmarkRecord{
		Industry: "Aerospace", SizeBand: "1000+", TypicalScore: 58,
	}))

	table, err := benchmarks.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2025.3", table.Version())
	assert.Equal(t, benchmarks.Default().Len()+1, table.Len())

	rec, ok := table.Cohort("Professional Services", "51-200")
	require.True(t, ok)
	assert.Equal(t, 70, rec.TypicalScore)
	assert.Equal(t, "120", rec.CohortMetadata["sample_size"])

	assert.Error(t, setCohort(path, "2025.4", readiness.BenchmarkRecord{
		Industry: "Aerospace", SizeBand: "1000+", TypicalScore: 101,
	}))
}
