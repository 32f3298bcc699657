package role

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/session"
)

// fakeSessions is an in-test session source with a settable identity
type fakeSessions struct {
	mu   sync.Mutex
	snap session.Snapshot
	subs []session.Subscriber
}

func (f *fakeSessions) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSessions) Subscribe(fn session.Subscriber) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeSessions) setIdentity(identity *session.Identity) {
	f.mu.Lock()
	f.snap = session.Snapshot{Identity: identity}
	subs := append([]session.Subscriber(nil), f.subs...)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// fakeRoleAPI counts calls and delegates to fn
type fakeRoleAPI struct {
	calls int32
	fn    func(email string) (*api.RoleRecord, error)
}

func (f *fakeRoleAPI) UserRole(ctx context.Context, email string) (*api.RoleRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(email)
}

func identityFor(email string) *session.Identity {
	return &session.Identity{UID: "uid-" + email, Email: email}
}

func TestResolve_AnonymousIsUnresolvedWithoutNetwork(t *testing.T) {
	roleAPI := &fakeRoleAPI{fn: func(string) (*api.RoleRecord, error) {
		t.Error("no lookup may happen for an anonymous session")
		return nil, nil
	}}
	sessions := &fakeSessions{}
	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	state := resolver.Resolve(context.Background())
	assert.Equal(t, PhaseUnresolved, state.Phase)
	assert.Zero(t, atomic.LoadInt32(&roleAPI.calls))
}

func TestResolve_CachesPerIdentity(t *testing.T) {
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		return &api.RoleRecord{Role: "admin", Premium: true}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	state := resolver.Resolve(context.Background())
	require.Equal(t, PhaseResolved, state.Phase)
	require.NotNil(t, state.Record)
	assert.Equal(t, RoleAdmin, state.Record.Role)
	assert.True(t, state.Record.Premium)

	// Second resolve for the same identity is served from cache.
	state = resolver.Resolve(context.Background())
	assert.Equal(t, PhaseResolved, state.Phase)
	assert.Equal(t, int32(1), atomic.LoadInt32(&roleAPI.calls))

	// State never triggers network.
	assert.Equal(t, PhaseResolved, resolver.State().Phase)
	assert.Equal(t, int32(1), atomic.LoadInt32(&roleAPI.calls))
}

func TestResolve_ConcurrentCallersShareOneLookup(t *testing.T) {
	release := make(chan struct{})
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		<-release
		return &api.RoleRecord{Role: "user"}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	const callers = 8
	var wg sync.WaitGroup
	states := make([]State, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = resolver.Resolve(context.Background())
		}(i)
	}

	// Give every caller time to join the in-flight lookup before it returns.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&roleAPI.calls))
	for _, state := range states {
		require.Equal(t, PhaseResolved, state.Phase)
		assert.Equal(t, RoleUser, state.Record.Role)
	}
}

func TestResolve_DropsResultForStaleIdentity(t *testing.T) {
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	started := make(chan struct{})
	release := make(chan struct{})
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		if email == "a@example.com" {
			close(started)
			<-release
			return &api.RoleRecord{Role: "admin"}, nil
		}
		return &api.RoleRecord{Role: "user"}, nil
	}}

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	var staleState State
	done := make(chan struct{})
	go func() {
		defer close(done)
		staleState = resolver.Resolve(context.Background())
	}()

	// The user switches accounts while a's lookup is still in flight.
	<-started
	sessions.setIdentity(identityFor("b@example.com"))
	close(release)
	<-done

	assert.Equal(t, PhaseUnresolved, staleState.Phase,
		"a result keyed to the old identity must never be installed")

	state := resolver.Resolve(context.Background())
	require.Equal(t, PhaseResolved, state.Phase)
	assert.Equal(t, RoleUser, state.Record.Role, "b must get b's record, never a's")
}

func TestResolve_SignOutEmptiesCache(t *testing.T) {
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		return &api.RoleRecord{Role: "admin"}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	require.Equal(t, PhaseResolved, resolver.Resolve(context.Background()).Phase)

	sessions.setIdentity(nil)
	assert.Equal(t, PhaseUnresolved, resolver.State().Phase)

	// Signing back in as the same account refetches; a role may have changed
	// in between.
	sessions.setIdentity(identityFor("a@example.com"))
	require.Equal(t, PhaseResolved, resolver.Resolve(context.Background()).Phase)
	assert.Equal(t, int32(2), atomic.LoadInt32(&roleAPI.calls))
}

func TestResolve_TokenRefreshKeepsRecord(t *testing.T) {
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		return &api.RoleRecord{Role: "admin"}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	require.Equal(t, PhaseResolved, resolver.Resolve(context.Background()).Phase)

	// A token rotation republishes the same identity; the cached record stays.
	sessions.setIdentity(identityFor("a@example.com"))
	assert.Equal(t, PhaseResolved, resolver.State().Phase)
	assert.Equal(t, int32(1), atomic.LoadInt32(&roleAPI.calls))
}

func TestResolve_FailureIsRetriedNotCached(t *testing.T) {
	var failures int32 = 1
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		if atomic.AddInt32(&failures, -1) >= 0 {
			return nil, assert.AnError
		}
		return &api.RoleRecord{Role: "user", Premium: true}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	state := resolver.Resolve(context.Background())
	require.Equal(t, PhaseFailed, state.Phase)
	assert.ErrorIs(t, state.Err, assert.AnError)
	assert.Nil(t, state.Record, "a failed lookup grants no role")

	state = resolver.Resolve(context.Background())
	require.Equal(t, PhaseResolved, state.Phase)
	assert.True(t, state.Record.Premium)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	var premium int32
	roleAPI := &fakeRoleAPI{fn: func(email string) (*api.RoleRecord, error) {
		return &api.RoleRecord{Role: "user", Premium: atomic.LoadInt32(&premium) == 1}, nil
	}}
	sessions := &fakeSessions{}
	sessions.setIdentity(identityFor("a@example.com"))

	resolver := NewResolver(roleAPI, sessions)
	defer resolver.Close()

	state := resolver.Resolve(context.Background())
	require.Equal(t, PhaseResolved, state.Phase)
	assert.False(t, state.Record.Premium)

	// The entitlement changes server side, e.g. after a checkout.
	atomic.StoreInt32(&premium, 1)
	resolver.Invalidate()
	assert.Equal(t, PhaseUnresolved, resolver.State().Phase)

	state = resolver.Resolve(context.Background())
	require.Equal(t, PhaseResolved, state.Phase)
	assert.True(t, state.Record.Premium)
}
