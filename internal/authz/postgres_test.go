package authz

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// passthroughConverter lets []string reach the mock the way the pgx driver
// accepts it for `= any($1)` parameters.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) {
	return v, nil
}

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestPGStoreGetOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select owner_id from songs where id =").
		WithArgs("song-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("alice"))

	owner, err := store.GetOwner(context.Background(), ResourceSong, "song-1")
	if err != nil {
		t.Fatalf("GetOwner: %v", err)
	}
	if owner != "alice" {
		t.Fatalf("owner = %q, want alice", owner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetOwnerNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select owner_id from setlists where id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	_, err := store.GetOwner(context.Background(), ResourceSetlist, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreGetOwnerUnknownType(t *testing.T) {
	store, _ := newMockStore(t)

	if _, err := store.GetOwner(context.Background(), ResourceType("playlist"), "x"); err == nil {
		t.Fatal("expected error for unknown resource type")
	}
	if _, err := store.GetOwners(context.Background(), ResourceType("playlist"), []string{"x"}); err == nil {
		t.Fatal("expected error for unknown resource type")
	}
}

func TestPGStoreGetOwners(t *testing.T) {
	store, mock := newMockStore(t)

	ids := []string{"song-1", "song-2", "song-99"}
	mock.ExpectQuery(`select id, owner_id from songs where id = any`).
		WithArgs(ids).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).
			AddRow("song-1", "alice").
			AddRow("song-2", "bob"))

	owners, err := store.GetOwners(context.Background(), ResourceSong, ids)
	if err != nil {
		t.Fatalf("GetOwners: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(owners))
	}
	if owners["song-1"] != "alice" || owners["song-2"] != "bob" {
		t.Fatalf("unexpected owners: %v", owners)
	}
	if _, ok := owners["song-99"]; ok {
		t.Fatal("missing id must not appear in the result")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetOwnersEmpty(t *testing.T) {
	store, _ := newMockStore(t)

	owners, err := store.GetOwners(context.Background(), ResourceSong, nil)
	if err != nil {
		t.Fatalf("GetOwners: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("expected empty map, got %v", owners)
	}
}
