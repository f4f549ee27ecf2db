package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
)

var _ repository.GroupRepository = (*DB)(nil)

func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO post_groups (title, slug, description) VALUES (?, ?, ?)`,
		group.Title,
		group.Slug,
		group.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Slug)
		}
		return fmt.Errorf("sqlite: inserting group %s: %w", group.Slug, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading group id: %w", err)
	}
	group.ID = id

	return nil
}

func (db *DB) GetGroupByID(ctx context.Context, id int64) (*model.Group, error) {
	g, err := scanGroup(db.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE id = ?`, id,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("group", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting group %d: %w", id, err)
	}
	return g, nil
}

func (db *DB) GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error) {
	g, err := scanGroup(db.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM post_groups WHERE slug = ?`, slug,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("group", slug)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", slug, err)
	}
	return g, nil
}

// ListGroups returns every group ordered by title, for form selects.
func (db *DB) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, slug, description FROM post_groups ORDER BY title, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}

	return groups, nil
}

func scanGroup(row *sql.Row) (*model.Group, error) {
	var g model.Group
	if err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
		return nil, err
	}
	return &g, nil
}
