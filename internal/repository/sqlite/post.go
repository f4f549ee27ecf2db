package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postSelect joins the author and the optional group so a listing is one
// query regardless of page size.
const postSelect = `
	SELECT p.id, p.text, p.pub_date, p.author_id, u.username, p.image,
	       g.id, g.title, g.slug, g.description
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_groups g ON g.id = p.group_id`

// postOrder is the single ordering used by every feed.
const postOrder = ` ORDER BY p.pub_date DESC, p.id ASC`

// CreatePost inserts the post. PubDate is set to now when the caller left
// it zero; it is never written again afterwards.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	if post.PubDate.IsZero() {
		post.PubDate = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (text, pub_date, author_id, group_id, image)
		 VALUES (?, ?, ?, ?, ?)`,
		post.Text,
		post.PubDate,
		post.AuthorID,
		nullableID(post.GroupID),
		post.Image,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("group", "selected group or author does not exist")
		}
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading post id: %w", err)
	}
	post.ID = id

	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return p, nil
}

// UpdatePost rewrites text, group and image. Author and pub_date are
// deliberately absent from the SET list.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?`,
		post.Text,
		nullableID(post.GroupID),
		post.Image,
		post.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("group", "selected group does not exist")
		}
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	return expectOneRow(result, "post", post.ID)
}

func (db *DB) DeletePost(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	return expectOneRow(result, "post", id)
}

func (db *DB) ListPosts(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	where, args := postWhere(filter)

	query := postSelect + where + postOrder
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, max(opts.Limit, 0))
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

func (db *DB) CountPosts(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := postWhere(filter)

	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

func postWhere(filter repository.PostFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.GroupID != 0 {
		conds = append(conds, `p.group_id = ?`)
		args = append(args, filter.GroupID)
	}
	if filter.AuthorID != "" {
		conds = append(conds, `p.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if filter.FollowerID != "" {
		conds = append(conds, `p.author_id IN (SELECT author_id FROM follows WHERE user_id = ?)`)
		args = append(args, filter.FollowerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		p                                model.Post
		groupID                          sql.NullInt64
		groupTitle, groupSlug, groupDesc sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Text, &p.PubDate, &p.AuthorID, &p.Author, &p.Image,
		&groupID, &groupTitle, &groupSlug, &groupDesc,
	); err != nil {
		return nil, err
	}

	if groupID.Valid {
		id := groupID.Int64
		p.GroupID = &id
		p.Group = &model.Group{
			ID:          id,
			Title:       groupTitle.String,
			Slug:        groupSlug.String,
			Description: groupDesc.String,
		}
	}

	return &p, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func expectOneRow(result sql.Result, resource string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}
