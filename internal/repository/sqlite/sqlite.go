// Package sqlite implements the repository interfaces on SQLite through
// database/sql and the pure-Go modernc.org/sqlite driver.
//
// The schema carries the data invariants itself: unique usernames and
// group slugs, a unique (user_id, author_id) follow pair with a CHECK
// against self-follows, and ON DELETE CASCADE from posts to comments.
// Text length rules live in the service layer, not here.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
//
// dbPath examples:
//   - "data/yatube.db" → file-based database
//   - ":memory:"       → in-memory database, used by tests
//
// SQLite pragmas are per connection, and every connection to ":memory:" is
// a separate database, so the pool is pinned to a single connection. SQLite
// serialises writers anyway.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite; the comment cascade depends on it.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent so it runs on
// each start.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users table", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				username      TEXT NOT NULL UNIQUE,
				email         TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"post_groups table", `
			CREATE TABLE IF NOT EXISTS post_groups (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				title       TEXT NOT NULL,
				slug        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT ''
			)`},
		{"posts table", `
			CREATE TABLE IF NOT EXISTS posts (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				text      TEXT NOT NULL,
				pub_date  DATETIME NOT NULL,
				author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				group_id  INTEGER REFERENCES post_groups(id) ON DELETE SET NULL,
				image     TEXT NOT NULL DEFAULT ''
			)`},
		{"posts pub_date index", `CREATE INDEX IF NOT EXISTS idx_posts_pub_date ON posts(pub_date DESC, id)`},
		{"posts author index", `CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`},
		{"posts group index", `CREATE INDEX IF NOT EXISTS idx_posts_group_id ON posts(group_id)`},
		{"comments table", `
			CREATE TABLE IF NOT EXISTS comments (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				post_id   INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				text      TEXT NOT NULL,
				created   DATETIME NOT NULL
			)`},
		{"comments post index", `CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id, created)`},
		{"follows table", `
			CREATE TABLE IF NOT EXISTS follows (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				UNIQUE (user_id, author_id),
				CHECK (user_id <> author_id)
			)`},
		{"follows author index", `CREATE INDEX IF NOT EXISTS idx_follows_author_id ON follows(author_id)`},
	}

	for _, st := range statements {
		if _, err := db.conn.Exec(st.sql); err != nil {
			return fmt.Errorf("creating %s: %w", st.name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The driver only exposes the SQLite message text, so this matches on it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
