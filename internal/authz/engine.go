// Package authz makes ownership-based access decisions for gigbook
// resources. Every mutating operation in the application asks this engine
// exactly once before touching a resource. Decisions fail closed: a missing
// resource, a foreign owner, and a storage outage all collapse to the same
// externally visible denial.
package authz

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/sync/errgroup"

	"gigbook.org/internal/obs"
	"gigbook.org/internal/sanitize"
)

// Engine evaluates ownership decisions against an OwnershipStore.
type Engine struct {
	store OwnershipStore
}

// NewEngine constructs an Engine.
func NewEngine(store OwnershipStore) *Engine {
	return &Engine{store: store}
}

// CheckFunc is an independent decision that can be combined with another.
type CheckFunc func(ctx context.Context) Result

// AuthorizeSingle decides whether userID may perform action on one resource.
// The user id is validated before any storage access. Owner comparison is
// exact byte equality: no case folding, no trimming. Loose matching here
// could let two distinct account ids collide.
func (e *Engine) AuthorizeSingle(ctx context.Context, rt ResourceType, resourceID, userID string, action Action) Result {
	res := Result{
		UserID:       userID,
		ResourceType: rt,
		ResourceID:   resourceID,
		Action:       action,
	}
	if !validUserID(userID) {
		res.Reason = ReasonInvalidUser
		obs.ObserveAuthzDecision(string(rt), string(action), false)
		return res
	}

	owner, err := e.store.GetOwner(ctx, rt, resourceID)
	switch {
	case err == nil && owner == userID:
		res.Authorized = true
		res.Reason = ReasonOK
	case err == nil:
		res.Reason = ReasonOwnershipMismatch
	case errors.Is(err, ErrNotFound):
		res.Reason = ReasonNotFound
	default:
		res.Reason = ReasonSystemError
		res.Context = map[string]string{"error": sanitize.Message(err.Error())}
	}
	obs.ObserveAuthzDecision(string(rt), string(action), res.Authorized)
	return res
}

// AuthorizeComposite decides an operation that touches several linked
// resources; each must independently be owned by the caller. Sub-checks run
// concurrently since ownership lookups are I/O bound. The combined result
// fails closed and cites the first failing part in input order.
func (e *Engine) AuthorizeComposite(ctx context.Context, parts []Part, userID string, action Action) Result {
	if len(parts) == 0 {
		return Result{UserID: userID, Action: action, Reason: ReasonNotFound}
	}
	if !validUserID(userID) {
		first := parts[0]
		return Result{
			UserID:       userID,
			ResourceType: first.Type,
			ResourceID:   first.ID,
			Action:       action,
			Reason:       ReasonInvalidUser,
		}
	}

	results := make([]Result, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			results[i] = e.AuthorizeSingle(gctx, part.Type, part.ID, userID, action)
			return nil
		})
	}
	_ = g.Wait() // sub-checks report through results, never through errors

	for i, r := range results {
		if !r.Authorized {
			r.Context = mergeContext(r.Context, map[string]string{
				"composite_part":  strconv.Itoa(i),
				"composite_total": strconv.Itoa(len(parts)),
			})
			return r
		}
	}

	combined := results[0]
	combined.Context = mergeContext(combined.Context, map[string]string{
		"composite_total": strconv.Itoa(len(parts)),
	})
	return combined
}

// AuthorizeBulk decides action over a whole id set with exactly one batched
// ownership lookup, independent of cardinality. The returned map carries an
// entry for every input id; ids without a stored row come back as not found.
func (e *Engine) AuthorizeBulk(ctx context.Context, rt ResourceType, ids []string, userID string, action Action) map[string]Result {
	out := make(map[string]Result, len(ids))
	fill := func(reason Reason) {
		for _, id := range ids {
			out[id] = Result{
				UserID:       userID,
				ResourceType: rt,
				ResourceID:   id,
				Action:       action,
				Reason:       reason,
			}
			obs.ObserveAuthzDecision(string(rt), string(action), false)
		}
	}

	if !validUserID(userID) {
		fill(ReasonInvalidUser)
		return out
	}
	if len(ids) == 0 {
		return out
	}

	owners, err := e.store.GetOwners(ctx, rt, ids)
	if err != nil {
		fill(ReasonSystemError)
		return out
	}

	for _, id := range ids {
		res := Result{
			UserID:       userID,
			ResourceType: rt,
			ResourceID:   id,
			Action:       action,
		}
		owner, ok := owners[id]
		switch {
		case !ok:
			res.Reason = ReasonNotFound
		case owner == userID:
			res.Authorized = true
			res.Reason = ReasonOK
		default:
			res.Reason = ReasonOwnershipMismatch
		}
		obs.ObserveAuthzDecision(string(rt), string(action), res.Authorized)
		out[id] = res
	}
	return out
}

// AuthorizeBoth runs two independent checks concurrently and succeeds only
// if both do. When one fails, its result is returned so the audit trail can
// say which side broke.
func (e *Engine) AuthorizeBoth(ctx context.Context, checkA, checkB CheckFunc) Result {
	var a, b Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { a = checkA(gctx); return nil })
	g.Go(func() error { b = checkB(gctx); return nil })
	_ = g.Wait()

	if !a.Authorized {
		a.Context = mergeContext(a.Context, map[string]string{"combined_check": "first"})
		return a
	}
	if !b.Authorized {
		b.Context = mergeContext(b.Context, map[string]string{"combined_check": "second"})
		return b
	}
	a.Context = mergeContext(a.Context, map[string]string{"combined_check": "both"})
	return a
}

// validUserID rejects identities that are empty or carry characters outside
// the account id alphabet. Validation never normalizes: a padded or
// case-shifted id is malformed, not an alias of another account.
func validUserID(userID string) bool {
	if userID == "" {
		return false
	}
	return sanitize.UserID(userID) == userID
}

func mergeContext(dst, extra map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		dst[k] = v
	}
	return dst
}
