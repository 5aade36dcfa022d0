package authz

// ResourceType identifies the kind of owned resource a decision is about.
type ResourceType string

const (
	ResourceSong        ResourceType = "song"
	ResourceSetlist     ResourceType = "setlist"
	ResourceSetlistSong ResourceType = "setlist_song"
)

// Valid reports whether t names a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceSong, ResourceSetlist, ResourceSetlistSong:
		return true
	default:
		return false
	}
}

// Action is the operation the caller wants to perform.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a names a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Reason records the internal cause of a decision. Callers outside this core
// only ever see the Authorized bit; reasons exist for the audit trail.
type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonNotFound          Reason = "not_found"
	ReasonOwnershipMismatch Reason = "ownership_mismatch"
	ReasonInvalidUser       Reason = "invalid_user"
	ReasonSystemError       Reason = "system_error"
)

// Result is the outcome of one authorization decision. It is ephemeral:
// produced per call, consumed by the caller and the security event logger,
// never persisted directly.
type Result struct {
	Authorized   bool
	UserID       string
	ResourceType ResourceType
	ResourceID   string
	Action       Action
	Reason       Reason
	Context      map[string]string
}

// Part names one resource inside a composite check.
type Part struct {
	Type ResourceType
	ID   string
}
