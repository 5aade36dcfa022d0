package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gigbook.org/internal/account"
	"gigbook.org/internal/lockout"
	"gigbook.org/internal/seclog"
	"gigbook.org/internal/token"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

// dummyPasswordHash is a bcrypt hash at the same cost as stored account
// hashes. The unknown-account branch verifies the submitted password against
// it so that branch costs one bcrypt comparison too; otherwise its response
// time alone would reveal whether the email exists.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// handleLogin authenticates an account. Every failure path returns the same
// status and a generic message; which internal branch fired is visible only
// in the audit trail.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	ip := clientIP(r)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, lockout.MessageInvalidCredentials)
		return
	}

	acct, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			_ = account.VerifyPassword(dummyPasswordHash, req.Password)
			res := a.policy.HandleUnknownAccount(ctx, email, ip)
			writeError(w, http.StatusUnauthorized, res.Message)
			return
		}
		a.events.SuspiciousActivity(ctx, "credential_store_error",
			"account lookup failed during login", "", seclog.SeverityHigh,
			map[string]string{"ip": ip, "error": err.Error()})
		writeError(w, http.StatusUnauthorized, lockout.MessageInvalidCredentials)
		return
	}

	state, err := a.policy.Check(ctx, acct.ID)
	if err != nil {
		a.events.SuspiciousActivity(ctx, "credential_store_error",
			"lockout check failed during login", acct.ID, seclog.SeverityHigh,
			map[string]string{"ip": ip, "error": err.Error()})
		writeError(w, http.StatusUnauthorized, lockout.MessageInvalidCredentials)
		return
	}
	if state.LockedOut {
		// An attempt against a locked account still counts: the ladder
		// escalates and the lockout end moves out.
		res, err := a.policy.HandleFailedLogin(ctx, acct.ID, ip)
		if err != nil {
			res = state
		}
		writeError(w, http.StatusUnauthorized, res.Message)
		return
	}

	if !acct.Active() || account.VerifyPassword(acct.PasswordHash, req.Password) != nil {
		res, err := a.policy.HandleFailedLogin(ctx, acct.ID, ip)
		if err != nil {
			writeError(w, http.StatusUnauthorized, lockout.MessageInvalidCredentials)
			return
		}
		writeError(w, http.StatusUnauthorized, res.Message)
		return
	}

	if err := a.policy.HandleSuccessfulLogin(ctx, acct.ID); err != nil {
		// The user did authenticate; a failed counter reset must not lock
		// them out of this session.
		a.events.SuspiciousActivity(ctx, "credential_store_error",
			"failure counter reset failed after successful login", acct.ID,
			seclog.SeverityHigh, map[string]string{"ip": ip, "error": err.Error()})
	}

	signed, err := token.Generate(acct.ID, tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     signed,
		ExpiresAt: time.Now().UTC().Add(tokenTTL),
	})
}
