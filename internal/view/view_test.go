package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/role"
	"github.com/soreli/soreli-cli/internal/session"
)

func TestLessons(t *testing.T) {
	assert.Contains(t, Lessons(nil), "No lessons found.")

	out := Lessons([]api.Lesson{
		{
			ID:         "l1",
			Title:      "Slow down",
			Category:   "Mindset",
			Tone:       "Gentle",
			AuthorName: "Ada",
			Access:     api.AccessPremium,
			Featured:   true,
			Likes:      3,
		},
	})
	assert.Contains(t, out, "Slow down")
	assert.Contains(t, out, "[premium]")
	assert.Contains(t, out, "[featured]")
	assert.Contains(t, out, "id: l1")
}

func TestWhoami(t *testing.T) {
	t.Run("resolving", func(t *testing.T) {
		out := Whoami(session.Snapshot{Resolving: true}, role.State{})
		assert.Contains(t, out, "Loading")
	})

	t.Run("anonymous", func(t *testing.T) {
		out := Whoami(session.Snapshot{}, role.State{})
		assert.Contains(t, out, "Not signed in.")
	})

	t.Run("resolved_admin", func(t *testing.T) {
		snap := session.Snapshot{Identity: &session.Identity{Email: "a@example.com", DisplayName: "Ada"}}
		out := Whoami(snap, role.State{
			Phase:  role.PhaseResolved,
			Record: &role.Record{Role: role.RoleAdmin, Premium: true},
		})
		assert.Contains(t, out, "Ada")
		assert.Contains(t, out, "role: admin")
		assert.Contains(t, out, "[premium]")
	})

	t.Run("failed_lookup", func(t *testing.T) {
		snap := session.Snapshot{Identity: &session.Identity{Email: "a@example.com"}}
		out := Whoami(snap, role.State{Phase: role.PhaseFailed, Err: assert.AnError})
		assert.Contains(t, out, "lookup failed")
	})
}

func TestSignInRedirect(t *testing.T) {
	out := SignInRedirect(guard.Decision{
		State:    guard.StateUnauthenticated,
		Redirect: guard.SignInPath,
		From:     "soreli admin stats",
	})
	assert.Contains(t, out, "Sign-in required")
	assert.Contains(t, out, "soreli login")
	assert.Contains(t, out, `"soreli admin stats"`)
}

func TestForbidden(t *testing.T) {
	out := Forbidden("role mismatch")
	assert.Contains(t, out, "Forbidden")
	assert.Contains(t, out, "role mismatch")
	assert.NotContains(t, out, "login", "a deny never suggests signing in again")
}
