package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/psiviz/internal/wave"

	_ "modernc.org/sqlite"
)

// Catalog stores runs in a SQLite database.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path. Use ":memory:"
// for a throwaway catalog.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY,
		format_version TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		n_dim_x INTEGER NOT NULL,
		n_dim_y INTEGER NOT NULL,
		x_min REAL NOT NULL,
		x_max REAL NOT NULL,
		y_min REAL NOT NULL,
		y_max REAL NOT NULL,
		steps INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		t REAL NOT NULL,
		psi BLOB NOT NULL,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Import stores rec as run runID, replacing an existing run with that id.
func (c *Catalog) Import(ctx context.Context, runID int, rec *wave.Record, description string) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, format_version, description, n_dim_x, n_dim_y, x_min, x_max, y_min, y_max, steps, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, FormatVersion, description, rec.NX, rec.NY, rec.XMin, rec.XMax, rec.YMin, rec.YMax, rec.Steps(), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshots (run_id, idx, t, psi) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for k, t := range rec.Times {
		if _, err := stmt.ExecContext(ctx, runID, k, t, encodeSamples(rec.Psi[k])); err != nil {
			return fmt.Errorf("failed to insert snapshot %d: %w", k, err)
		}
	}

	return tx.Commit()
}

// Metadata returns the header of a run.
func (c *Catalog) Metadata(ctx context.Context, runID int) (*RunMetadata, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, format_version, description, n_dim_x, n_dim_y, x_min, x_max, y_min, y_max, steps, created_at
		FROM runs WHERE id = ?
	`, runID)

	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %d not in catalog", wave.ErrDataUnavailable, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: run %d: %v", wave.ErrDataUnavailable, runID, err)
	}
	if err := checkFormat(meta.FormatVersion); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	return meta, nil
}

// Load reads a run and validates it.
func (c *Catalog) Load(ctx context.Context, runID int) (*wave.Record, error) {
	meta, err := c.Metadata(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `SELECT idx, t, psi FROM snapshots WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: run %d snapshots: %v", wave.ErrDataUnavailable, runID, err)
	}
	defer rows.Close()

	rec := &wave.Record{
		Times: make([]float64, 0, meta.Steps),
		Psi:   make([][]complex128, 0, meta.Steps),
		XMin:  meta.XMin,
		XMax:  meta.XMax,
		YMin:  meta.YMin,
		YMax:  meta.YMax,
		NX:    meta.NX,
		NY:    meta.NY,
	}

	for rows.Next() {
		var (
			idx  int
			t    float64
			blob []byte
		)
		if err := rows.Scan(&idx, &t, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if idx != len(rec.Times) {
			return nil, fmt.Errorf("%w: run %d: snapshot %d missing", wave.ErrMalformedDataset, runID, len(rec.Times))
		}
		psi, err := decodeSamples(blob, meta.NX*meta.NY)
		if err != nil {
			return nil, fmt.Errorf("run %d snapshot %d: %w", runID, idx, err)
		}
		rec.Times = append(rec.Times, t)
		rec.Psi = append(rec.Psi, psi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: run %d snapshots: %v", wave.ErrDataUnavailable, runID, err)
	}

	if rec.Steps() != meta.Steps {
		return nil, fmt.Errorf("%w: run %d has %d snapshots, header says %d", wave.ErrMalformedDataset, runID, rec.Steps(), meta.Steps)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	return rec, nil
}

// List returns the headers of all catalogued runs ordered by id.
func (c *Catalog) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, format_version, description, n_dim_x, n_dim_y, x_min, x_max, y_min, y_max, steps, created_at
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *meta)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunMetadata, error) {
	var (
		meta    RunMetadata
		created int64
	)
	err := s.Scan(&meta.ID, &meta.FormatVersion, &meta.Description,
		&meta.NX, &meta.NY, &meta.XMin, &meta.XMax, &meta.YMin, &meta.YMax,
		&meta.Steps, &created)
	if err != nil {
		return nil, err
	}
	meta.Created = time.Unix(created, 0).UTC()
	return &meta, nil
}
