package httpapi

import (
	"net/http"

	"gigbook.org/internal/authz"
	"gigbook.org/internal/token"
)

type checkRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Action       string `json:"action"`
}

type compositePart struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

type compositeRequest struct {
	Parts  []compositePart `json:"parts"`
	Action string          `json:"action"`
}

type bulkRequest struct {
	ResourceType string   `json:"resource_type"`
	IDs          []string `json:"ids"`
	Action       string   `json:"action"`
}

type checkResponse struct {
	Authorized bool `json:"authorized"`
}

type bulkResponse struct {
	Results map[string]bool `json:"results"`
}

// handleCheck decides one single-resource authorization. The response only
// carries the boolean; reasons stay inside the audit trail so callers
// cannot tell a missing resource from a foreign one.
func (a *API) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := token.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt := authz.ResourceType(req.ResourceType)
	action := authz.Action(req.Action)
	if !rt.Valid() || !action.Valid() || req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "resource_type, resource_id and action are required")
		return
	}

	res := a.engine.AuthorizeSingle(r.Context(), rt, req.ResourceID, userID, action)
	a.events.AuthorizationOutcome(r.Context(), res)
	writeJSON(w, http.StatusOK, checkResponse{Authorized: res.Authorized})
}

// handleCheckComposite decides an operation spanning linked resources, e.g.
// attaching a song to a setlist where both must belong to the caller.
func (a *API) handleCheckComposite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := token.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req compositeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action := authz.Action(req.Action)
	if !action.Valid() || len(req.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "parts and action are required")
		return
	}
	parts := make([]authz.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		rt := authz.ResourceType(p.ResourceType)
		if !rt.Valid() || p.ResourceID == "" {
			writeError(w, http.StatusBadRequest, "every part needs a resource_type and resource_id")
			return
		}
		parts = append(parts, authz.Part{Type: rt, ID: p.ResourceID})
	}

	res := a.engine.AuthorizeComposite(r.Context(), parts, userID, action)
	a.events.AuthorizationOutcome(r.Context(), res)
	writeJSON(w, http.StatusOK, checkResponse{Authorized: res.Authorized})
}

// handleCheckBulk decides action over a full id set with one batched
// ownership lookup, used by list and reorder operations.
func (a *API) handleCheckBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := token.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt := authz.ResourceType(req.ResourceType)
	action := authz.Action(req.Action)
	if !rt.Valid() || !action.Valid() || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "resource_type, ids and action are required")
		return
	}

	results := a.engine.AuthorizeBulk(r.Context(), rt, req.IDs, userID, action)
	out := make(map[string]bool, len(results))
	for id, res := range results {
		a.events.AuthorizationOutcome(r.Context(), res)
		out[id] = res.Authorized
	}
	writeJSON(w, http.StatusOK, bulkResponse{Results: out})
}
