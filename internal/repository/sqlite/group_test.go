package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
)

func TestCreateGroup(t *testing.T) {
	db := newTestDB(t)
	group := createTestGroup(t, db, "cats")

	if group.ID == 0 {
		t.Fatal("CreateGroup() did not set group.ID")
	}

	found, err := db.GetGroupBySlug(context.Background(), "cats")
	if err != nil {
		t.Fatalf("GetGroupBySlug() error = %v", err)
	}
	if found.ID != group.ID || found.Description != "about cats" {
		t.Errorf("GetGroupBySlug() = %+v, want %+v", found, group)
	}
}

func TestCreateGroup_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	createTestGroup(t, db, "cats")

	err := db.CreateGroup(context.Background(), &model.Group{Title: "Other", Slug: "cats"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateGroup() duplicate error = %v, want ErrConflict", err)
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetGroupBySlug(context.Background(), "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGroupBySlug() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetGroupByID(context.Background(), 7); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGroupByID() error = %v, want ErrNotFound", err)
	}
}

func TestListGroups_OrderedByTitle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, g := range []model.Group{{Title: "Zebras", Slug: "z"}, {Title: "Ants", Slug: "a"}} {
		g := g
		if err := db.CreateGroup(ctx, &g); err != nil {
			t.Fatalf("CreateGroup() error = %v", err)
		}
	}

	groups, err := db.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 2 || groups[0].Title != "Ants" {
		t.Errorf("ListGroups() = %+v, want Ants first", groups)
	}
}
