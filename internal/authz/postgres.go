package authz

import (
	"context"
	"database/sql"
	"fmt"
)

var _ OwnershipStore = (*PGStore)(nil)

// PGStore resolves ownership projections from PostgreSQL. It reads only the
// {id, owner_id} columns; resource payloads never pass through this package.
type PGStore struct {
	db *sql.DB
}

// NewPGStore constructs a PGStore.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func tableFor(rt ResourceType) (string, error) {
	switch rt {
	case ResourceSong:
		return "songs", nil
	case ResourceSetlist:
		return "setlists", nil
	case ResourceSetlistSong:
		return "setlist_songs", nil
	default:
		return "", fmt.Errorf("authz: unknown resource type %q", rt)
	}
}

func (s *PGStore) GetOwner(ctx context.Context, rt ResourceType, id string) (string, error) {
	table, err := tableFor(rt)
	if err != nil {
		return "", err
	}
	var owner string
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`select owner_id from %s where id = $1`, table), id)
	if err := row.Scan(&owner); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("authz: get owner: %w", err)
	}
	return owner, nil
}

func (s *PGStore) GetOwners(ctx context.Context, rt ResourceType, ids []string) (map[string]string, error) {
	table, err := tableFor(rt)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`select id, owner_id from %s where id = any($1)`, table), ids)
	if err != nil {
		return nil, fmt.Errorf("authz: get owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[string]string, len(ids))
	for rows.Next() {
		var id, owner string
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, fmt.Errorf("authz: get owners: %w", err)
		}
		owners[id] = owner
	}
	return owners, rows.Err()
}
