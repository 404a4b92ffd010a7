package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDGenerator
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db, ids: store.NewIDGenerator()}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	guides TEXT,
	config TEXT
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL,
	id TEXT NOT NULL,
	guide TEXT NOT NULL,
	species TEXT NOT NULL,
	common_name TEXT,
	scientific_name TEXT,
	size TEXT,
	size_min_cm REAL,
	size_max_cm REAL,
	voice TEXT,
	PRIMARY KEY(run_id, id),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS tokens (
	run_id TEXT NOT NULL,
	record_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	surface TEXT NOT NULL,
	lemma TEXT NOT NULL,
	pos TEXT,
	modality TEXT,
	timbre INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(run_id, record_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS tokens_lemma ON tokens(run_id, lemma);

CREATE TABLE IF NOT EXISTS attestations (
	run_id TEXT NOT NULL,
	list TEXT NOT NULL,
	word TEXT NOT NULL,
	attested INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, list, word),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chisquare_tables (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	statistic REAL NOT NULL,
	df INTEGER NOT NULL,
	p_value REAL NOT NULL,
	PRIMARY KEY(run_id, name),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chisquare_cells (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	reference INTEGER NOT NULL,
	observed INTEGER NOT NULL,
	expected REAL NOT NULL,
	residual REAL NOT NULL DEFAULT 0,
	std_residual REAL NOT NULL,
	direction TEXT,
	PRIMARY KEY(run_id, name, category),
	FOREIGN KEY(run_id, name) REFERENCES chisquare_tables(run_id, name) ON DELETE CASCADE
);
`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	// Databases created before the Pearson residual was stored lack the column.
	return ensureColumn(ctx, db, "chisquare_cells", "residual", "REAL NOT NULL DEFAULT 0")
}

func ensureColumn(ctx context.Context, db *sql.DB, table, column, decl string) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// CreateRun inserts a run, assigning an ID and timestamp when missing.
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = s.ids.New(r.CreatedAt)
	}
	r.Records, r.Tokens = 0, 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, guides, config) VALUES (?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Guides, r.Config)
	if err != nil {
		return store.Run{}, fmt.Errorf("create run: %w", err)
	}
	return r, nil
}

const runColumns = `
SELECT r.id, r.created_at, r.guides, r.config,
	(SELECT COUNT(*) FROM records WHERE run_id = r.id),
	(SELECT COUNT(*) FROM tokens WHERE run_id = r.id)
FROM runs r`

// GetRun returns a run with its record and token counts.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, runColumns+` WHERE r.id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	return r, err
}

// ListRuns returns all runs, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, runColumns+` ORDER BY r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r       store.Run
		created string
		guides  sql.NullString
		config  sql.NullString
	)
	if err := sc.Scan(&r.ID, &created, &guides, &config, &r.Records, &r.Tokens); err != nil {
		return store.Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: bad timestamp %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	r.Guides = guides.String
	r.Config = config.String
	return r, nil
}

func requireRun(ctx context.Context, tx *sql.Tx, runID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return err
}

// SaveRecords replaces the records of a run.
func (s *sqliteStore) SaveRecords(ctx context.Context, runID string, recs []store.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireRun(ctx, tx, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records (run_id, id, guide, species, common_name, scientific_name, size, size_min_cm, size_max_cm, voice)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if r.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, r.ID, r.Guide, r.Species, r.CommonName,
			r.ScientificName, r.Size, r.SizeMinCM, r.SizeMaxCM, r.Voice); err != nil {
			return fmt.Errorf("save record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Records returns the records of a run ordered by ID.
func (s *sqliteStore) Records(ctx context.Context, runID string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, guide, species, common_name, scientific_name, size, size_min_cm, size_max_cm, voice
FROM records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var r store.Record
		var common, sci, size, voice sql.NullString
		if err := rows.Scan(&r.ID, &r.Guide, &r.Species, &common, &sci, &size,
			&r.SizeMinCM, &r.SizeMaxCM, &voice); err != nil {
			return nil, err
		}
		r.CommonName = common.String
		r.ScientificName = sci.String
		r.Size = size.String
		r.Voice = voice.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveTokens replaces the tokens of a run.
func (s *sqliteStore) SaveTokens(ctx context.Context, runID string, toks []store.Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireRun(ctx, tx, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE run_id = ?`, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tokens (run_id, record_id, position, surface, lemma, pos, modality, timbre)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range toks {
		if t.Surface == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, t.RecordID, t.Position, t.Surface, t.Lemma,
			t.POS, t.Modality, boolInt(t.Timbre)); err != nil {
			return fmt.Errorf("save token %s/%d: %w", t.RecordID, t.Position, err)
		}
	}
	return tx.Commit()
}

// TokenFrequencies returns lemma counts, most frequent first. A limit
// of zero or less returns every lemma.
func (s *sqliteStore) TokenFrequencies(ctx context.Context, runID string, limit int) ([]store.TokenFrequency, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT lemma, COUNT(*) AS n, COUNT(DISTINCT record_id)
FROM tokens WHERE run_id = ?
GROUP BY lemma
ORDER BY n DESC, lemma ASC
LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TokenFrequency
	for rows.Next() {
		var tf store.TokenFrequency
		if err := rows.Scan(&tf.Lemma, &tf.Count, &tf.Records); err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, rows.Err()
}

// SaveAttestations upserts attestation flags.
func (s *sqliteStore) SaveAttestations(ctx context.Context, runID string, atts []store.Attestation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireRun(ctx, tx, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO attestations (run_id, list, word, attested, count)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, list, word) DO UPDATE SET
	attested=excluded.attested,
	count=excluded.count`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range atts {
		if a.List == "" || a.Word == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, a.List, a.Word, boolInt(a.Attested), a.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Attestations returns the flags of one list, or all lists when list is
// empty, ordered by list then word.
func (s *sqliteStore) Attestations(ctx context.Context, runID, list string) ([]store.Attestation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT list, word, attested, count FROM attestations
WHERE run_id = ? AND (? = '' OR list = ?)
ORDER BY list, word`, runID, list, list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Attestation
	for rows.Next() {
		var a store.Attestation
		var attested int
		if err := rows.Scan(&a.List, &a.Word, &attested, &a.Count); err != nil {
			return nil, err
		}
		a.Attested = attested != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveChiSquare replaces a named contingency test.
func (s *sqliteStore) SaveChiSquare(ctx context.Context, runID string, table store.ChiSquareTable) error {
	if table.Name == "" {
		return fmt.Errorf("%w: chi-square table has no name", internalerr.ErrInvalidInput)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireRun(ctx, tx, runID); err != nil {
		return err
	}
	// foreign_keys is per connection, so cells are not left to the cascade
	for _, q := range []string{
		`DELETE FROM chisquare_cells WHERE run_id = ? AND name = ?`,
		`DELETE FROM chisquare_tables WHERE run_id = ? AND name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, runID, table.Name); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO chisquare_tables (run_id, name, statistic, df, p_value) VALUES (?, ?, ?, ?, ?)`,
		runID, table.Name, table.Statistic, table.DF, table.PValue); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chisquare_cells (run_id, name, category, reference, observed, expected, residual, std_residual, direction)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range table.Cells {
		if _, err := stmt.ExecContext(ctx, runID, table.Name, c.Category, c.Reference, c.Observed,
			c.Expected, c.Residual, c.StdResidual, c.Direction); err != nil {
			return fmt.Errorf("save cell %s/%s: %w", table.Name, c.Category, err)
		}
	}
	return tx.Commit()
}

// ChiSquare loads a named contingency test with cells ordered by category.
func (s *sqliteStore) ChiSquare(ctx context.Context, runID, name string) (store.ChiSquareTable, error) {
	table := store.ChiSquareTable{Name: name}
	err := s.db.QueryRowContext(ctx, `
SELECT statistic, df, p_value FROM chisquare_tables WHERE run_id = ? AND name = ?`,
		runID, name).Scan(&table.Statistic, &table.DF, &table.PValue)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ChiSquareTable{}, fmt.Errorf("%w: chi-square %s in run %s", internalerr.ErrNotFound, name, runID)
	}
	if err != nil {
		return store.ChiSquareTable{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT category, reference, observed, expected, residual, std_residual, direction
FROM chisquare_cells WHERE run_id = ? AND name = ? ORDER BY category`, runID, name)
	if err != nil {
		return store.ChiSquareTable{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var c store.ChiSquareCell
		var dir sql.NullString
		if err := rows.Scan(&c.Category, &c.Reference, &c.Observed, &c.Expected, &c.Residual, &c.StdResidual, &dir); err != nil {
			return store.ChiSquareTable{}, err
		}
		c.Direction = dir.String
		table.Cells = append(table.Cells, c)
	}
	return table, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
