// Package guard decides whether a protected route renders, redirects, or
// shows a forbidden view. Decisions are pure functions of the session and
// role snapshots; evaluation performs no I/O.
package guard

import (
	"github.com/soreli/soreli-cli/internal/role"
	"github.com/soreli/soreli-cli/internal/session"
)

// SignInPath is the single redirect target for unauthenticated access
const SignInPath = "/signin"

// State is the guard outcome
type State int

const (
	// StatePending means session or role resolution has not settled; render a
	// placeholder and do not redirect.
	StatePending State = iota
	// StateAllow renders the protected content
	StateAllow
	// StateDeny renders the forbidden view without redirecting; the caller is
	// signed in but lacks the required role or entitlement
	StateDeny
	// StateUnauthenticated redirects to sign-in, preserving the origin
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAllow:
		return "allow"
	case StateDeny:
		return "deny"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Requirement describes what a route demands from the caller
type Requirement struct {
	// Authenticated requires a signed-in identity
	Authenticated bool
	// Role, when set, requires that exact role. Implies Authenticated.
	Role role.Role
	// Premium requires the premium entitlement. Implies Authenticated.
	Premium bool
}

// RequireAuth is a route that any signed-in user may use
func RequireAuth() Requirement {
	return Requirement{Authenticated: true}
}

// RequireRole is a route restricted to one role
func RequireRole(r role.Role) Requirement {
	return Requirement{Authenticated: true, Role: r}
}

// RequirePremium is a route gated by the premium entitlement
func RequirePremium() Requirement {
	return Requirement{Authenticated: true, Premium: true}
}

// Decision is the evaluated outcome for one route
type Decision struct {
	State State
	// Redirect is the navigation target for StateUnauthenticated
	Redirect string
	// From is the originating path, preserved so the post-sign-in flow can
	// return the user there
	From string
	// Reason is a short operator-facing explanation for deny/pending states
	Reason string
}

// Evaluate runs the guard state machine for one route.
//
// The identity check always precedes the role check, and missing identity
// always redirects to SignInPath. Role resolution that has settled into
// failure is a deny, never an allow.
func Evaluate(sess session.Snapshot, roleState role.State, req Requirement, from string) Decision {
	needsRole := req.Role != ""
	needsAuth := req.Authenticated || needsRole || req.Premium

	// 1. Session still resolving: placeholder regardless of anything else.
	if sess.Resolving {
		return Decision{State: StatePending, From: from, Reason: "session resolving"}
	}

	// 2. Settled and anonymous.
	if sess.Identity == nil {
		if !needsAuth {
			return Decision{State: StateAllow, From: from}
		}
		return Decision{
			State:    StateUnauthenticated,
			Redirect: SignInPath,
			From:     from,
		}
	}

	// 3. Signed in; route has no role or entitlement demands.
	if !needsRole && !req.Premium {
		return Decision{State: StateAllow, From: from}
	}

	switch roleState.Phase {
	case role.PhaseUnresolved, role.PhaseResolving:
		return Decision{State: StatePending, From: from, Reason: "role resolving"}
	case role.PhaseFailed:
		// An unresolved-after-settling record grants nothing.
		return Decision{State: StateDeny, From: from, Reason: "role resolution failed"}
	}

	record := roleState.Record
	if needsRole && record.Role != req.Role {
		return Decision{State: StateDeny, From: from, Reason: "role mismatch"}
	}
	if req.Premium && !record.Premium {
		return Decision{State: StateDeny, From: from, Reason: "premium required"}
	}
	return Decision{State: StateAllow, From: from}
}
