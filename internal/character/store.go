package character

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists character records using SQLite
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new SQLite-backed character store at the given path
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

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS characters (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			sheet          TEXT NOT NULL,
			portrait_path  TEXT,
			token_path     TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_characters_name ON characters(name);
	`)
	return err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces a character record. An empty ID is derived
// from the character name.
func (s *Store) Upsert(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = SlugID(rec.Name)
	}
	now := time.Now()
	nowStr := now.Format(time.RFC3339)
	rec.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO characters (id, name, sheet, portrait_path, token_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sheet = excluded.sheet,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Name, toJSON(rec), rec.PortraitPath, rec.TokenPath, nowStr, nowStr)
	return err
}

// Get returns the character with the given ID, or sql.ErrNoRows
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT sheet, portrait_path, token_path, updated_at
		FROM characters
		WHERE id = ?
	`, id)

	var sheet string
	var portraitPath, tokenPath sql.NullString
	var updatedAt string

	if err := row.Scan(&sheet, &portraitPath, &tokenPath, &updatedAt); err != nil {
		return nil, err
	}

	var rec Record
	if err := fromJSON(sheet, &rec); err != nil {
		return nil, fmt.Errorf("corrupt character sheet for %s: %w", id, err)
	}
	rec.ID = id
	if portraitPath.Valid {
		rec.PortraitPath = portraitPath.String
	}
	if tokenPath.Valid {
		rec.TokenPath = tokenPath.String
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

// List returns all stored characters ordered by name
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, sheet, portrait_path, token_path, updated_at
		FROM characters
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var id, sheet string
		var portraitPath, tokenPath sql.NullString
		var updatedAt string

		if err := rows.Scan(&id, &sheet, &portraitPath, &tokenPath, &updatedAt); err != nil {
			return nil, err
		}

		var rec Record
		if err := fromJSON(sheet, &rec); err != nil {
			continue
		}
		rec.ID = id
		if portraitPath.Valid {
			rec.PortraitPath = portraitPath.String
		}
		if tokenPath.Valid {
			rec.TokenPath = tokenPath.String
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			rec.UpdatedAt = t
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// SetImagePaths updates the character's artwork references. Empty values
// leave the corresponding slot untouched. Both updates happen in one
// statement so a partial write is never visible.
func (s *Store) SetImagePaths(id, portraitPath, tokenPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowStr := time.Now().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE characters
		SET portrait_path = CASE WHEN ? != '' THEN ? ELSE portrait_path END,
		    token_path    = CASE WHEN ? != '' THEN ? ELSE token_path END,
		    updated_at    = ?
		WHERE id = ?
	`, portraitPath, portraitPath, tokenPath, tokenPath, nowStr, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("character not found: %s", id)
	}
	return nil
}

// SlugID derives a stable store ID from a character name
func SlugID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return "character"
	}
	return id
}
