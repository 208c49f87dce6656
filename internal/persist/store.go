package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	_ "modernc.org/sqlite"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store handles persistence of execution history, content versions and
// feedback using SQLite
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewStore creates a new SQLite-backed history store at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db, now: time.Now}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id             TEXT PRIMARY KEY,
			created_at     TEXT NOT NULL,
			provider       TEXT NOT NULL,
			model          TEXT NOT NULL,
			params         TEXT,
			system_prompt  TEXT,
			user_prompt    TEXT,
			content        TEXT,
			metadata       TEXT,
			simulated      INTEGER NOT NULL DEFAULT 0,
			error          TEXT
		);

		CREATE TABLE IF NOT EXISTS versions (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			execution_id  TEXT,
			content       TEXT,
			metadata      TEXT,
			created_at    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS feedback (
			id            TEXT PRIMARY KEY,
			execution_id  TEXT NOT NULL,
			rating        INTEGER NOT NULL,
			comment       TEXT,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_executions_created ON executions(created_at);
		CREATE INDEX IF NOT EXISTS idx_versions_created ON versions(created_at);
		CREATE INDEX IF NOT EXISTS idx_feedback_execution ON feedback(execution_id);
	`)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

// RecordExecution stores an execution. Empty ID and CreatedAt are filled in.
func (s *Store) RecordExecution(e *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.stamp()
	}

	_, err := s.db.Exec(`
		INSERT INTO executions (id, created_at, provider, model, params, system_prompt, user_prompt, content, metadata, simulated, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CreatedAt.UTC().Format(timeLayout), e.Provider, e.Model, toJSON(e.Params),
		e.SystemPrompt, e.UserPrompt, e.Content, toJSON(e.Metadata), boolToInt(e.Simulated), e.Error)
	return err
}

// ListExecutions returns executions newest first. limit <= 0 returns all.
func (s *Store) ListExecutions(limit int) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, provider, model, params, system_prompt, user_prompt, content, metadata, simulated, error
		FROM executions
		ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetExecution returns one execution by ID.
func (s *Store) GetExecution(id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, provider, model, params, system_prompt, user_prompt, content, metadata, simulated, error
		FROM executions WHERE id = ?
	`, id)
	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ClearExecutions deletes all executions and their feedback.
func (s *Store) ClearExecutions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM feedback"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM executions"); err != nil {
		return err
	}
	return tx.Commit()
}

func scanExecution(sc scanner) (*Execution, error) {
	var (
		e                                 Execution
		createdAt                         string
		params, meta                      sql.NullString
		system, user, content, errMessage sql.NullString
		simulated                         int
	)
	if err := sc.Scan(&e.ID, &createdAt, &e.Provider, &e.Model, &params, &system, &user,
		&content, &meta, &simulated, &errMessage); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	e.SystemPrompt = system.String
	e.UserPrompt = user.String
	e.Content = content.String
	e.Error = errMessage.String
	e.Simulated = simulated != 0
	if err := fromJSON(params.String, &e.Params); err != nil {
		return nil, fmt.Errorf("decode params of %s: %w", e.ID, err)
	}
	if err := fromJSON(meta.String, &e.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", e.ID, err)
	}
	return &e, nil
}

// SaveVersion stores a named content version.
func (s *Store) SaveVersion(v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.stamp()
	}
	if v.Name == "" {
		v.Name = "Version_" + v.CreatedAt.Format("20060102_150405")
	}

	_, err := s.db.Exec(`
		INSERT INTO versions (id, name, execution_id, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.ID, v.Name, v.ExecutionID, v.Content, toJSON(v.Metadata), v.CreatedAt.UTC().Format(timeLayout))
	return err
}

// ListVersions returns versions oldest first.
func (s *Store) ListVersions() ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, execution_id, content, metadata, created_at
		FROM versions ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVersion looks a version up by ID, then by name.
func (s *Store) GetVersion(ref string) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, execution_id, content, metadata, created_at
		FROM versions WHERE id = ? OR name = ?
		ORDER BY (id = ?) DESC, created_at DESC LIMIT 1
	`, ref, ref, ref)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// DiffVersions returns a unified diff from version a to version b.
func (s *Store) DiffVersions(a, b string) (string, error) {
	from, err := s.GetVersion(a)
	if err != nil {
		return "", fmt.Errorf("version %s: %w", a, err)
	}
	to, err := s.GetVersion(b)
	if err != nil {
		return "", fmt.Errorf("version %s: %w", b, err)
	}
	return DiffText(from.Name, from.Content, to.Name, to.Content)
}

// DiffText renders a unified diff of two texts.
func DiffText(fromName, from, toName, to string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}

func scanVersion(sc scanner) (*Version, error) {
	var (
		v                     Version
		execID, content, meta sql.NullString
		createdAt             string
	)
	if err := sc.Scan(&v.ID, &v.Name, &execID, &content, &meta, &createdAt); err != nil {
		return nil, err
	}
	v.ExecutionID = execID.String
	v.Content = content.String
	v.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if err := fromJSON(meta.String, &v.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", v.ID, err)
	}
	return &v, nil
}

// RecordFeedback stores a rating for an execution.
func (s *Store) RecordFeedback(f *Feedback) error {
	if f.Rating < 1 || f.Rating > 5 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.stamp()
	}

	_, err := s.db.Exec(`
		INSERT INTO feedback (id, execution_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.ID, f.ExecutionID, f.Rating, f.Comment, f.CreatedAt.UTC().Format(timeLayout))
	return err
}

// ListFeedback returns feedback newest first. An empty executionID lists all.
func (s *Store) ListFeedback(executionID string) ([]*Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, execution_id, rating, comment, created_at FROM feedback`
	args := []any{}
	if executionID != "" {
		query += " WHERE execution_id = ?"
		args = append(args, executionID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Feedback
	for rows.Next() {
		var (
			f         Feedback
			comment   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.ExecutionID, &f.Rating, &comment, &createdAt); err != nil {
			return nil, err
		}
		f.Comment = comment.String
		f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
