package auth

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists credentials in a single-row SQLite table. Used when
// several tools on one host should share a session.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed credential store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureCredentialSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens (or creates) the database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load() (Credentials, error) {
	row := s.db.QueryRow(`
		SELECT access_token, refresh_token, expires_at FROM credentials WHERE id = 1
	`)
	var (
		creds   Credentials
		expires sql.NullTime
	)
	err := row.Scan(&creds.AccessToken, &creds.RefreshToken, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}
	if expires.Valid {
		creds.ExpiresAt = expires.Time
	}
	return creds, nil
}

func (s *SQLiteStore) StoreAccess(token string, expiresAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, access_token, refresh_token, expires_at)
		VALUES (1, ?, '', ?)
		ON CONFLICT(id) DO UPDATE SET access_token = excluded.access_token, expires_at = excluded.expires_at
	`, token, nullableTime(expiresAt))
	return err
}

func (s *SQLiteStore) StoreRefresh(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, access_token, refresh_token, expires_at)
		VALUES (1, '', ?, NULL)
		ON CONFLICT(id) DO UPDATE SET refresh_token = excluded.refresh_token
	`, token)
	return err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`)
	return err
}

func ensureCredentialSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TIMESTAMP
		);
	`)
	return err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
