// smoke-security exercises the security decision layer in process: ownership
// checks, the lockout escalation ladder, and audit event capture, all against
// in-memory stores. Exits non-zero on the first violated invariant.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"gigbook.org/internal/account"
	"gigbook.org/internal/authz"
	"gigbook.org/internal/lockout"
	"gigbook.org/internal/obs"
	"gigbook.org/internal/seclog"
)

func main() {
	obs.Init()
	ctx := context.Background()

	accounts := account.NewInMemoryStore()
	ownership := authz.NewInMemoryStore()
	sink := seclog.NewInMemorySink()
	events := seclog.New(sink, obs.Logger(), seclog.WithSynchronousDispatch())

	engine := authz.NewEngine(ownership)
	policy, err := lockout.NewPolicy(accounts, lockout.DefaultConfig(), lockout.WithNotifier(events))
	if err != nil {
		log.Fatalf("lockout config: %v", err)
	}

	alice := &account.Account{Email: "alice@example.com", PasswordHash: "x"}
	bob := &account.Account{Email: "bob@example.com", PasswordHash: "x"}
	if err := accounts.Create(ctx, alice); err != nil {
		log.Fatalf("create alice: %v", err)
	}
	if err := accounts.Create(ctx, bob); err != nil {
		log.Fatalf("create bob: %v", err)
	}

	ownership.SetOwner(authz.ResourceSong, "song-1", alice.ID)
	ownership.SetOwner(authz.ResourceSong, "song-2", alice.ID)
	ownership.SetOwner(authz.ResourceSetlist, "setlist-1", alice.ID)
	ownership.SetOwner(authz.ResourceSong, "song-3", bob.ID)

	// Single-resource decisions.
	if res := engine.AuthorizeSingle(ctx, authz.ResourceSong, "song-1", alice.ID, authz.ActionUpdate); !res.Authorized {
		log.Fatalf("owner denied own song: %+v", res)
	}
	if res := engine.AuthorizeSingle(ctx, authz.ResourceSong, "song-3", alice.ID, authz.ActionUpdate); res.Authorized {
		log.Fatalf("alice authorized on bob's song: %+v", res)
	}
	if res := engine.AuthorizeSingle(ctx, authz.ResourceSong, "song-99", alice.ID, authz.ActionDelete); res.Authorized || res.Reason != authz.ReasonNotFound {
		log.Fatalf("missing song not reported as not found: %+v", res)
	}

	// Composite: attaching a song to a setlist needs both.
	parts := []authz.Part{
		{Type: authz.ResourceSetlist, ID: "setlist-1"},
		{Type: authz.ResourceSong, ID: "song-2"},
	}
	if res := engine.AuthorizeComposite(ctx, parts, alice.ID, authz.ActionUpdate); !res.Authorized {
		log.Fatalf("composite denied for owner of both parts: %+v", res)
	}
	parts[1].ID = "song-3"
	if res := engine.AuthorizeComposite(ctx, parts, alice.ID, authz.ActionUpdate); res.Authorized {
		log.Fatalf("composite authorized across owners: %+v", res)
	}

	// Bulk: one lookup, an answer per id.
	bulk := engine.AuthorizeBulk(ctx, authz.ResourceSong, []string{"song-1", "song-2", "song-3", "song-99"}, alice.ID, authz.ActionRead)
	if !bulk["song-1"].Authorized || !bulk["song-2"].Authorized {
		log.Fatalf("bulk denied alice her own songs: %+v", bulk)
	}
	if bulk["song-3"].Authorized || bulk["song-99"].Authorized {
		log.Fatalf("bulk authorized foreign or missing songs: %+v", bulk)
	}

	// Drive bob to the lockout threshold.
	var last lockout.Result
	for i := 0; i < 5; i++ {
		last, err = policy.HandleFailedLogin(ctx, bob.ID, "203.0.113.7")
		if err != nil {
			log.Fatalf("failed login %d: %v", i+1, err)
		}
	}
	if !last.LockedOut || last.LockoutEnd == nil {
		log.Fatalf("account not locked after 5 failures: %+v", last)
	}
	if got := time.Until(*last.LockoutEnd); got > 6*time.Minute {
		log.Fatalf("first-tier lockout too long: %s", got)
	}

	state, err := policy.Check(ctx, bob.ID)
	if err != nil {
		log.Fatalf("check: %v", err)
	}
	if !state.LockedOut {
		log.Fatalf("check does not see active lockout: %+v", state)
	}

	// Success resets the counter but the active lock stays until it expires.
	if err := policy.HandleSuccessfulLogin(ctx, bob.ID); err != nil {
		log.Fatalf("reset: %v", err)
	}
	count, err := accounts.GetFailureCount(ctx, bob.ID)
	if err != nil || count != 0 {
		log.Fatalf("counter not reset: count=%d err=%v", count, err)
	}
	state, err = policy.Check(ctx, bob.ID)
	if err != nil || !state.LockedOut {
		log.Fatalf("lockout cleared by counter reset: %+v err=%v", state, err)
	}

	policy.HandleUnknownAccount(ctx, "ghost@example.com", "203.0.113.7")

	events.Close()
	captured := sink.Events()
	if len(captured) == 0 {
		log.Fatal("no security events captured")
	}
	for _, evt := range captured {
		if ip, ok := evt.Context["ip"]; ok && ip == "203.0.113.7" {
			log.Fatalf("unmasked ip in audit record %s", evt.ID)
		}
	}

	fmt.Printf("✅ security smoke test passed: %d audit events\n", len(captured))
}
