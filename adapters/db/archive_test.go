package db

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"gosobol/adapters/db/migrations"
	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/internal/testkit"
	"gosobol/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Archive {
	t.Helper()
	archive, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url    string
		driver string
		dsn    string
	}{
		{"postgres://u:p@localhost/sobol?sslmode=disable", "postgres", "postgres://u:p@localhost/sobol?sslmode=disable"},
		{"postgresql://localhost/sobol", "postgres", "postgresql://localhost/sobol"},
		{"sqlite://runs.db", "sqlite3", "runs.db?_foreign_keys=on"},
		{"file:runs.db?cache=shared", "sqlite3", "file:runs.db?cache=shared&_foreign_keys=on"},
		{":memory:", "sqlite3", ":memory:?_foreign_keys=on"},
	}
	for _, tt := range tests {
		driver, dsn, err := DriverFor(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.driver, driver)
		assert.Equal(t, tt.dsn, dsn)
	}

	_, _, err := DriverFor("mysql://localhost")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestStoreAndReadRun(t *testing.T) {
	ctx := context.Background()
	archive := openMemory(t)
	report, _ := testkit.SampleReport(t, 32, sensitivity.SchemeSecondOrder)

	require.NoError(t, archive.StoreRun(ctx, report))

	manifest, err := archive.GetRunManifest(ctx, report.Manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Manifest.RunID, manifest.RunID)
	assert.Equal(t, report.Manifest.Seed, manifest.Seed)
	assert.Equal(t, report.Manifest.Scheme, manifest.Scheme)
	assert.Equal(t, report.Manifest.Fingerprint, manifest.Fingerprint)
	assert.Equal(t, report.Manifest.CreatedAt.Time().Unix(), manifest.CreatedAt.Time().Unix())

	rows, err := archive.GetRunIndices(ctx, report.Manifest.RunID)
	require.NoError(t, err)
	// two scenarios x (4 first + 4 total + 6 second)
	assert.Len(t, rows, 28)

	want := report.Scenarios[0].Result.Total.Rows[0]
	var found bool
	for _, r := range rows {
		if r.Scenario == report.Scenarios[0].Scenario.ID && r.Order == "total" && r.Parameters == want.Name() {
			found = true
			assert.InDelta(t, want.Estimate, r.Estimate, 1e-12)
			assert.InDelta(t, want.Interval.Min, r.Min, 1e-12)
			assert.Equal(t, want.Influential, r.Influential)
		}
	}
	assert.True(t, found)
}

func TestStoreRunTwiceFails(t *testing.T) {
	ctx := context.Background()
	archive := openMemory(t)
	report, _ := testkit.SampleReport(t, 16, sensitivity.SchemeFirstTotal)

	require.NoError(t, archive.StoreRun(ctx, report))
	err := archive.StoreRun(ctx, report)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.True(t, isUniqueViolation(err))
}

func TestNonFiniteIndicesRoundTripAsNaN(t *testing.T) {
	ctx := context.Background()
	archive := openMemory(t)
	report, _ := testkit.SampleReport(t, 16, sensitivity.SchemeFirstTotal)
	report.Scenarios[0].Result.First.Rows[0].Estimate = math.NaN()
	report.Scenarios[0].Result.First.Rows[0].Interval = sensitivity.Interval{Min: math.NaN(), Max: math.NaN()}

	require.NoError(t, archive.StoreRun(ctx, report))
	rows, err := archive.GetRunIndices(ctx, report.Manifest.RunID)
	require.NoError(t, err)

	nan := 0
	for _, r := range rows {
		if math.IsNaN(r.Estimate) {
			nan++
			assert.True(t, math.IsNaN(r.Min))
		}
	}
	assert.Equal(t, 1, nan)
}

func TestListRunsFilters(t *testing.T) {
	ctx := context.Background()
	archive := openMemory(t)

	first, _ := testkit.SampleReport(t, 16, sensitivity.SchemeFirstTotal)
	second, _ := testkit.SampleReport(t, 16, sensitivity.SchemeSecondOrder)
	require.NoError(t, archive.StoreRun(ctx, first))
	require.NoError(t, archive.StoreRun(ctx, second))

	all, err := archive.ListRuns(ctx, ports.RunFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlySecond, err := archive.ListRuns(ctx, ports.RunFilters{Scheme: string(sensitivity.SchemeSecondOrder)})
	require.NoError(t, err)
	require.Len(t, onlySecond, 1)
	assert.Equal(t, second.Manifest.RunID, onlySecond[0].RunID)

	seed := int64(7)
	none, err := archive.ListRuns(ctx, ports.RunFilters{Seed: &seed})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := archive.ListRuns(ctx, ports.RunFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetMissingRun(t *testing.T) {
	archive := openMemory(t)
	_, err := archive.GetRunManifest(context.Background(), core.RunID("missing"))
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = archive.GetRunIndices(context.Background(), core.RunID("missing"))
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	archive, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	archive, err = Open(ctx, "sqlite://"+path, nil)
	require.NoError(t, err)
	defer archive.Close()

	status, err := archive.Migrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.True(t, s.Applied, s.Version)
	}

	_, err = archive.db.ExecContext(ctx, "UPDATE schema_migrations SET checksum = 'tampered'")
	require.NoError(t, err)
	assert.Error(t, migrations.NewMigrator(archive.db, nil).Verify(ctx))
}
