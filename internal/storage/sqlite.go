// Package storage persists the member roster and optimization run history in
// SQLite. The optimizer core never touches this package; the API layer reads
// the roster before a run and saves the summary afterwards.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for members and runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "psychsync.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Members ---

func (s *Store) SaveMember(m Member) error {
	var exp sql.NullFloat64
	if m.ExperienceYears != nil {
		exp = sql.NullFloat64{Float64: *m.ExperienceYears, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO members (id, name, role, traits, skills, experience_years, availability, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, role = excluded.role, traits = excluded.traits,
			skills = excluded.skills, experience_years = excluded.experience_years,
			availability = excluded.availability`,
		m.ID, m.Name, m.Role, m.TraitsJSON, m.SkillsJSON, exp, m.Availability,
		m.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetMember(id string) (Member, error) {
	row := s.db.QueryRow(`
		SELECT id, name, role, traits, skills, experience_years, availability, created_at
		FROM members WHERE id = ?`, id)
	return scanMember(row)
}

func (s *Store) ListMembers() ([]Member, error) {
	rows, err := s.db.Query(`
		SELECT id, name, role, traits, skills, experience_years, availability, created_at
		FROM members ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func (s *Store) DeleteMember(id string) error {
	res, err := s.db.Exec("DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (Member, error) {
	var m Member
	var exp sql.NullFloat64
	var createdAt string
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.TraitsJSON, &m.SkillsJSON, &exp, &m.Availability, &createdAt)
	if err == sql.ErrNoRows {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, err
	}
	if exp.Valid {
		v := exp.Float64
		m.ExperienceYears = &v
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Member{}, fmt.Errorf("parsing created_at: %w", err)
	}
	m.CreatedAt = t
	return m, nil
}

// --- Optimization runs ---

func (s *Store) SaveRun(r Run) error {
	exceeded := 0
	if r.BudgetExceeded {
		exceeded = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO optimization_runs (id, objective, candidate_count, top_score, budget_exceeded, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Objective, r.CandidateCount, r.TopScore, exceeded, r.ResultJSON,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetRun(id string) (Run, error) {
	var r Run
	var exceeded int
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, objective, candidate_count, top_score, budget_exceeded, result, created_at
		FROM optimization_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Objective, &r.CandidateCount, &r.TopScore, &exceeded, &r.ResultJSON, &createdAt)
	if err == sql.ErrNoRows {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	r.BudgetExceeded = exceeded != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

// ListRuns returns run summaries newest first. ResultJSON is not populated;
// fetch a single run for the full payload.
func (s *Store) ListRuns(limit, offset int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, objective, candidate_count, top_score, budget_exceeded, created_at
		FROM optimization_runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var r Run
		var exceeded int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Objective, &r.CandidateCount, &r.TopScore, &exceeded, &createdAt); err != nil {
			return nil, err
		}
		r.BudgetExceeded = exceeded != 0
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		r.CreatedAt = t
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec("DELETE FROM optimization_runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppliedMigrations returns the list of applied migration versions in
// ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
