package sqlite

import (
	"context"
	"fmt"

	"github.com/yatube/yatube/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// CreateFollow relies on the UNIQUE (user_id, author_id) index: a repeated
// follow is ignored by the database rather than checked first, so two
// concurrent requests still produce one row.
func (db *DB) CreateFollow(ctx context.Context, userID, authorID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id) VALUES (?, ?)
		 ON CONFLICT (user_id, author_id) DO NOTHING`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: following %s -> %s: %w", userID, authorID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) DeleteFollow(ctx context.Context, userID, authorID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: unfollowing %s -> %s: %w", userID, authorID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)`,
		userID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", userID, authorID, err)
	}
	return exists, nil
}

// CountFollows is the number of authors userID follows.
func (db *DB) CountFollows(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting follows of %s: %w", userID, err)
	}
	return n, nil
}
