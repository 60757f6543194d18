package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"gosobol/adapters/db/migrations"
	"gosobol/domain/core"
	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/models"
	"gosobol/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Archive stores run manifests and index tables in PostgreSQL or SQLite
type Archive struct {
	db     *sqlx.DB
	logger *internal.Logger
}

var _ ports.LedgerPort = (*Archive)(nil)

// DriverFor maps an archive URL to a database/sql driver name and DSN.
// postgres:// and postgresql:// URLs use lib/pq. sqlite:// URLs, file: DSNs,
// :memory: and bare *.db paths use go-sqlite3.
func DriverFor(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite3", sqliteDSN(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"), url == ":memory:",
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return "sqlite3", sqliteDSN(url), nil
	}
	return "", "", errors.ConfigInvalid(fmt.Sprintf("unsupported archive database url %q", url))
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Open connects to url and applies pending migrations
func Open(ctx context.Context, url string, logger *internal.Logger) (*Archive, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	driver, dsn, err := DriverFor(url)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to run archive", err)
	}
	if driver == "sqlite3" {
		// one connection keeps :memory: databases shared and writes serialized
		conn.SetMaxOpenConns(1)
	}

	if err := migrations.NewMigrator(conn, logger).Up(ctx); err != nil {
		conn.Close()
		return nil, errors.DatabaseError("failed to migrate run archive", err)
	}
	logger.Debug("Run archive ready (%s)", driver)
	return &Archive{db: conn, logger: logger}, nil
}

// Close releases the connection pool
func (a *Archive) Close() error {
	return a.db.Close()
}

// Migrations reports every embedded migration and verifies applied checksums
func (a *Archive) Migrations(ctx context.Context) ([]migrations.MigrationStatus, error) {
	m := migrations.NewMigrator(a.db, a.logger)
	if err := m.Verify(ctx); err != nil {
		return nil, errors.DatabaseError("run archive schema drifted", err)
	}
	return m.Status(ctx)
}

// StoreRun writes the manifest, scenarios and every index row in one transaction
func (a *Archive) StoreRun(ctx context.Context, report *run.Report) error {
	if report.Manifest == nil {
		return errors.InvalidInput("report has no manifest")
	}
	if err := report.Manifest.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (run_id, seed, sample_count, scheme, sampler, resamples, confidence,
			measurement_offset, code_version, design_hash, fingerprint, created_at)
		VALUES (:run_id, :seed, :sample_count, :scheme, :sampler, :resamples, :confidence,
			:measurement_offset, :code_version, :design_hash, :fingerprint, :created_at)
	`, toRunRecord(report.Manifest))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.DatabaseError(fmt.Sprintf("run %s is already archived", report.Manifest.RunID), err)
		}
		return errors.DatabaseError("failed to insert run", err)
	}

	insertIndex, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO run_indices (run_id, scenario_id, index_order, parameters, row_rank, estimate, ci_min, ci_max, influential)
		VALUES (:run_id, :scenario_id, :index_order, :parameters, :row_rank, :estimate, :ci_min, :ci_max, :influential)
	`)
	if err != nil {
		return errors.DatabaseError("failed to prepare index insert", err)
	}
	defer insertIndex.Close()

	for _, sr := range report.Scenarios {
		scenarioRecord := models.ScenarioRecord{
			RunID:          report.Manifest.RunID.String(),
			ScenarioID:     sr.Scenario.ID.String(),
			Description:    sr.Scenario.Description,
			Distributions:  sr.Scenario.Summary(),
			OutputMean:     nullable(sr.Result.Mean),
			OutputVariance: nullable(sr.Result.Variance),
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO run_scenarios (run_id, scenario_id, description, distributions, output_mean, output_variance)
			VALUES (:run_id, :scenario_id, :description, :distributions, :output_mean, :output_variance)
		`, scenarioRecord)
		if err != nil {
			return errors.DatabaseError("failed to insert scenario", err)
		}

		for _, record := range toIndexRecords(report.Manifest.RunID, sr) {
			if _, err := insertIndex.ExecContext(ctx, record); err != nil {
				return errors.DatabaseError("failed to insert index row", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	a.logger.Info("Archived run %s (%d scenarios)", report.Manifest.RunID, len(report.Scenarios))
	return nil
}

// ListRuns returns archived manifests, newest first
func (a *Archive) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.RunManifest, error) {
	query := `SELECT run_id, seed, sample_count, scheme, sampler, resamples, confidence,
		measurement_offset, code_version, design_hash, fingerprint, created_at FROM runs`
	var where []string
	var args []interface{}
	if filters.Seed != nil {
		where = append(where, "seed = ?")
		args = append(args, *filters.Seed)
	}
	if filters.Scheme != "" {
		where = append(where, "scheme = ?")
		args = append(args, filters.Scheme)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, run_id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	var records []models.RunRecord
	if err := a.db.SelectContext(ctx, &records, a.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	out := make([]run.RunManifest, len(records))
	for i, r := range records {
		out[i] = fromRunRecord(r)
	}
	return out, nil
}

// GetRunManifest loads one archived manifest
func (a *Archive) GetRunManifest(ctx context.Context, runID core.RunID) (*run.RunManifest, error) {
	var record models.RunRecord
	err := a.db.GetContext(ctx, &record, a.db.Rebind(`
		SELECT run_id, seed, sample_count, scheme, sampler, resamples, confidence,
			measurement_offset, code_version, design_hash, fingerprint, created_at
		FROM runs WHERE run_id = ?`), runID.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Classify(core.NewNotFoundError("run", runID.String()))
		}
		return nil, errors.DatabaseError("failed to load run", err)
	}
	manifest := fromRunRecord(record)
	return &manifest, nil
}

// GetRunIndices loads every index row of one run in table order
func (a *Archive) GetRunIndices(ctx context.Context, runID core.RunID) ([]ports.ArchivedIndex, error) {
	if _, err := a.GetRunManifest(ctx, runID); err != nil {
		return nil, err
	}

	var records []models.IndexRecord
	err := a.db.SelectContext(ctx, &records, a.db.Rebind(`
		SELECT run_id, scenario_id, index_order, parameters, row_rank, estimate, ci_min, ci_max, influential
		FROM run_indices WHERE run_id = ?
		ORDER BY scenario_id, CASE index_order WHEN 'first' THEN 0 WHEN 'total' THEN 1 ELSE 2 END, row_rank`), runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load index rows", err)
	}

	out := make([]ports.ArchivedIndex, len(records))
	for i, r := range records {
		out[i] = ports.ArchivedIndex{
			Scenario:    core.ScenarioID(r.ScenarioID),
			Order:       r.IndexOrder,
			Parameters:  r.Parameters,
			Estimate:    fromNullable(r.Estimate),
			Min:         fromNullable(r.CIMin),
			Max:         fromNullable(r.CIMax),
			Influential: r.Influential,
		}
	}
	return out, nil
}

func toRunRecord(m *run.RunManifest) models.RunRecord {
	return models.RunRecord{
		RunID:             m.RunID.String(),
		Seed:              m.Seed,
		SampleCount:       m.SampleCount,
		Scheme:            string(m.Scheme),
		Sampler:           m.Sampler,
		Resamples:         m.Resamples,
		Confidence:        m.Confidence,
		MeasurementOffset: m.MeasurementOffset,
		CodeVersion:       m.CodeVersion,
		DesignHash:        m.Fingerprint.DesignHash.String(),
		Fingerprint:       m.Fingerprint.Fingerprint.String(),
		CreatedAt:         m.CreatedAt.Time().UTC(),
	}
}

func fromRunRecord(r models.RunRecord) run.RunManifest {
	fingerprint := run.NewRunFingerprint(core.Hash(r.DesignHash), r.Seed, r.SampleCount, r.Scheme, r.Sampler, r.Resamples, r.CodeVersion)
	fingerprint.Fingerprint = core.Hash(r.Fingerprint)
	return run.RunManifest{
		RunID:             core.RunID(r.RunID),
		Seed:              r.Seed,
		SampleCount:       r.SampleCount,
		Scheme:            sensitivity.Scheme(r.Scheme),
		Sampler:           r.Sampler,
		Resamples:         r.Resamples,
		Confidence:        r.Confidence,
		MeasurementOffset: r.MeasurementOffset,
		CodeVersion:       r.CodeVersion,
		Fingerprint:       fingerprint,
		CreatedAt:         core.NewTimestamp(r.CreatedAt.UTC()),
	}
}

func toIndexRecords(runID core.RunID, sr run.ScenarioReport) []models.IndexRecord {
	var records []models.IndexRecord
	for _, table := range sr.Result.Tables() {
		for rank, ix := range table.Rows {
			records = append(records, models.IndexRecord{
				RunID:       runID.String(),
				ScenarioID:  sr.Scenario.ID.String(),
				IndexOrder:  string(table.Order),
				Parameters:  ix.Name(),
				Rank:        rank,
				Estimate:    nullable(ix.Estimate),
				CIMin:       nullable(ix.Interval.Min),
				CIMax:       nullable(ix.Interval.Max),
				Influential: ix.Influential,
			})
		}
	}
	return records
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
