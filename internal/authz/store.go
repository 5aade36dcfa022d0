package authz

import (
	"context"
	"errors"
)

// ErrNotFound indicates no resource exists for the requested id.
var ErrNotFound = errors.New("authz: resource not found")

// OwnershipStore exposes the minimal {id, owner} projection the engine
// decides on. Implementations must not cache results across calls;
// ownership can change between decisions.
type OwnershipStore interface {
	// GetOwner returns the owner id for a single resource, or ErrNotFound.
	GetOwner(ctx context.Context, rt ResourceType, id string) (string, error)

	// GetOwners resolves owners for the full id set in one batched lookup.
	// Ids without a row are simply absent from the returned map.
	GetOwners(ctx context.Context, rt ResourceType, ids []string) (map[string]string, error)
}
