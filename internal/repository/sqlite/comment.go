package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// CreateComment inserts the comment. A post that vanished between the
// caller's existence check and this insert surfaces as NotFound.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	if comment.Created.IsZero() {
		comment.Created = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, text, created) VALUES (?, ?, ?, ?)`,
		comment.PostID,
		comment.AuthorID,
		comment.Text,
		comment.Created,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("post", strconv.FormatInt(comment.PostID, 10))
		}
		return fmt.Errorf("sqlite: inserting comment on post %d: %w", comment.PostID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	comment.ID = id

	return nil
}

func (db *DB) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var c model.Comment
	err := db.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Text, &c.Created,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting comment %d: %w", id, err)
	}
	return &c, nil
}

func (db *DB) DeleteComment(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}
	return expectOneRow(result, "comment", id)
}

// ListComments returns a post's comments in the order they were written.
func (db *DB) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		commentSelect+` WHERE c.post_id = ? ORDER BY c.created ASC, c.id ASC`, postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %d: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Text, &c.Created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}
