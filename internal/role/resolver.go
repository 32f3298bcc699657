// Package role answers "what can this identity do" with one backend call per
// identity. Concurrent callers share the in-flight lookup, results for a
// stale identity are dropped, and any identity change empties the cache.
package role

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/log"
	"github.com/soreli/soreli-cli/internal/session"
)

// Role is the coarse permission class
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Record is the resolved classification for one identity
type Record struct {
	Role    Role
	Premium bool
}

// Phase describes how far resolution has progressed
type Phase int

const (
	// PhaseUnresolved means no record exists yet (anonymous, or not fetched)
	PhaseUnresolved Phase = iota
	// PhaseResolving means a lookup is in flight
	PhaseResolving
	// PhaseResolved means the record is known for the current identity
	PhaseResolved
	// PhaseFailed means the lookup failed; no role may be inferred from it
	PhaseFailed
)

// State is a snapshot of the resolver for guard evaluation
type State struct {
	Phase  Phase
	Record *Record
	Err    error
}

// roleAPI is the slice of the API client the resolver needs
type roleAPI interface {
	UserRole(ctx context.Context, email string) (*api.RoleRecord, error)
}

// sessionSource is the slice of the session store the resolver needs
type sessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(session.Subscriber) func()
}

// Resolver caches one role record keyed by identity email
type Resolver struct {
	api      roleAPI
	sessions sessionSource

	group singleflight.Group

	mu    sync.Mutex
	key   string // identity email the cached state belongs to
	state State

	unsubscribe func()
}

// NewResolver creates a resolver bound to the session store. The subscription
// discards the cache on every identity change, including sign-out.
func NewResolver(roleAPI roleAPI, sessions sessionSource) *Resolver {
	r := &Resolver{
		api:      roleAPI,
		sessions: sessions,
	}
	r.unsubscribe = sessions.Subscribe(func(identity *session.Identity) {
		r.invalidate(identity)
	})
	return r
}

// Close tears down the session subscription
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// State returns the cached resolution state for the current identity without
// issuing any network call
func (r *Resolver) State() State {
	snap := r.sessions.Snapshot()
	if snap.Identity == nil {
		return State{Phase: PhaseUnresolved}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.key != snap.Identity.Email {
		return State{Phase: PhaseUnresolved}
	}
	return r.state
}

// Resolve returns the role record for the current identity, fetching it if
// needed. A nil identity resolves immediately to unresolved with no network
// call. A previous failure is retried.
func (r *Resolver) Resolve(ctx context.Context) State {
	snap := r.sessions.Snapshot()
	if snap.Identity == nil {
		return State{Phase: PhaseUnresolved}
	}
	email := snap.Identity.Email

	r.mu.Lock()
	if r.key == email && r.state.Phase == PhaseResolved {
		state := r.state
		r.mu.Unlock()
		return state
	}
	r.key = email
	r.state = State{Phase: PhaseResolving}
	r.mu.Unlock()

	// singleflight collapses concurrent lookups for the same identity into
	// one request; every waiter receives the shared result.
	v, err, shared := r.group.Do(email, func() (any, error) {
		record, err := r.api.UserRole(ctx, email)
		if err != nil {
			return nil, err
		}
		return &Record{Role: Role(record.Role), Premium: record.Premium}, nil
	})

	log.LogTraceWithFields("role", "Role resolution completed", map[string]any{
		"email":  email,
		"shared": shared,
		"failed": err != nil,
	})

	// The identity may have changed while the lookup was in flight. A result
	// keyed to the old identity must never be installed for the new one.
	current := r.sessions.Snapshot()
	if current.Identity == nil || current.Identity.Email != email {
		log.LogDebugWithFields("role", "Dropping role result for stale identity", map[string]any{
			"resolvedFor": email,
		})
		return State{Phase: PhaseUnresolved}
	}

	var state State
	if err != nil {
		// Resolution errors never default to a role; callers treat this as
		// non-allow and may retry.
		state = State{Phase: PhaseFailed, Err: err}
	} else {
		state = State{Phase: PhaseResolved, Record: v.(*Record)}
	}

	r.mu.Lock()
	if r.key == email {
		r.state = state
	}
	r.mu.Unlock()
	return state
}

// Invalidate discards the cached record so the next Resolve refetches it.
// Used when entitlements change server side, such as after a checkout.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key = ""
	r.state = State{Phase: PhaseUnresolved}
}

// invalidate reacts to an identity change by discarding the cached record
func (r *Resolver) invalidate(identity *session.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newKey := ""
	if identity != nil {
		newKey = identity.Email
	}
	if newKey == r.key && r.state.Phase == PhaseResolved {
		// Token refresh for the same identity keeps the record.
		return
	}
	r.key = ""
	r.state = State{Phase: PhaseUnresolved}
}
