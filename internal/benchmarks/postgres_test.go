// internal/benchmarks/postgres_test.go
package benchmarks

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/readiness"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

var cohortColumns = []string{"industry", "size_band", "typical_score", "metadata", "version", "reference_score"}

func TestPostgresLoader_Load(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT industry, size_band, typical_score").
		WillReturnRows(sqlmock.NewRows(cohortColumns).
			AddRow("Other", "51-200", 53, "", "2025.2", 56).
			AddRow("Professional Services", "51-200", 66, `{"sample_size":"140"}`, "2025.2", 56))

	loader, err := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
	require.NoError(t, err)

	table, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025.2", table.Version())
	assert.Equal(t, 56, table.ReferenceScore())
	r, ok := table.Cohort("professional services", "51-200")
	require.True(t, ok)
	assert.Equal(t, 66, r.TypicalScore)
	assert.Equal(t, "140", r.CohortMetadata["sample_size"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_LoadErrors(t *testing.T) {
	t.Run("query failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()
		mock.ExpectQuery("SELECT industry").WillReturnError(errors.New("relation does not exist"))

		loader, _ := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
		_, err := loader.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query benchmark cohorts")
	})

	t.Run("bad metadata", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()
		mock.ExpectQuery("SELECT industry").
			WillReturnRows(sqlmock.NewRows(cohortColumns).AddRow("Retail", "1-10", 40, "{not json", "v", 50))

		loader, _ := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
		_, err := loader.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode metadata for Retail/1-10")
	})

	t.Run("empty table", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()
		mock.ExpectQuery("SELECT industry").WillReturnRows(sqlmock.NewRows(cohortColumns))

		loader, _ := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
		_, err := loader.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no cohorts")
	})
}

func TestNewPostgresLoader_RejectsUnsafeTableName(t *testing.T) {
	_, err := NewPostgresLoader(nil, "benchmarks; DROP TABLE users")
	assert.Error(t, err)
}

func TestPostgresLoader_Save(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	table, err := NewTable("2025.3", 55, []readiness.BenchmarkRecord{
		{Industry: "Retail", SizeBand: "1-10", TypicalScore: 40},
		{Industry: "Other", SizeBand: "1-10", TypicalScore: 38, CohortMetadata: map[string]string{"source": "survey"}},
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM readiness_benchmarks").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec("INSERT INTO readiness_benchmarks").
		WithArgs("Other", "1-10", 38, `{"source":"survey"}`, "2025.3", 55).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO readiness_benchmarks").
		WithArgs("Retail", "1-10", 40, sqlmock.AnyArg(), "2025.3", 55).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	loader, _ := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
	require.NoError(t, loader.Save(context.Background(), table))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_SaveRollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM readiness_benchmarks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO readiness_benchmarks").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	loader, _ := NewPostgresLoader(database.NewPostgresFromDB(db), "readiness_benchmarks")
	err := loader.Save(context.Background(), singleCohort(t, "v1", 40))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
