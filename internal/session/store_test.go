package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soreli/soreli-cli/internal/credstore"
	"github.com/soreli/soreli-cli/internal/idp"
	"github.com/soreli/soreli-cli/internal/testutil"
)

func testCredential(uid, email string, expiresAt time.Time) *idp.Credential {
	return &idp.Credential{
		UID:          uid,
		Email:        email,
		DisplayName:  "Test User",
		IDToken:      "id-token-" + uid,
		RefreshToken: "refresh-" + uid,
		ExpiresAt:    expiresAt,
	}
}

func TestNewStore_StartsResolving(t *testing.T) {
	provider := &testutil.MockProvider{}
	store := NewStore(provider, credstore.NewMemoryStore())

	snap := store.Snapshot()
	assert.True(t, snap.Resolving)
	assert.Nil(t, snap.Identity)
	assert.False(t, snap.Authenticated())
}

func TestRestore_NoPersistedCredential(t *testing.T) {
	provider := &testutil.MockProvider{}
	store := NewStore(provider, credstore.NewMemoryStore())

	store.Restore(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Resolving)
	assert.Nil(t, snap.Identity)
	// No refresh may be attempted when nothing was persisted.
	provider.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestRestore_RefreshesPersistedCredential(t *testing.T) {
	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	persisted := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	require.NoError(t, creds.Save(ctx, persisted))

	refreshed := &idp.Credential{
		UID:          "u1",
		IDToken:      "rotated-token",
		RefreshToken: "rotated-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	provider := &testutil.MockProvider{}
	provider.On("Refresh", mock.Anything, "refresh-u1").Return(refreshed, nil)

	store := NewStore(provider, creds)
	store.Restore(ctx)

	snap := store.Snapshot()
	require.NotNil(t, snap.Identity)
	assert.False(t, snap.Resolving)
	// Account fields survive the refresh; the token endpoint returns bearer
	// material only.
	assert.Equal(t, "a@example.com", snap.Identity.Email)
	assert.Equal(t, "Test User", snap.Identity.DisplayName)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", token)
	provider.AssertExpectations(t)
}

func TestRestore_DeadRefreshTokenSettlesAnonymous(t *testing.T) {
	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	require.NoError(t, creds.Save(ctx, testCredential("u1", "a@example.com", time.Now().Add(time.Hour))))

	provider := &testutil.MockProvider{}
	provider.On("Refresh", mock.Anything, "refresh-u1").
		Return(nil, idp.NewError(idp.CodeTokenExpired, "INVALID_REFRESH_TOKEN", nil))

	store := NewStore(provider, creds)
	store.Restore(ctx)

	snap := store.Snapshot()
	assert.False(t, snap.Resolving)
	assert.Nil(t, snap.Identity, "a dead refresh token must not produce a phantom session")

	_, err := creds.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound, "the unusable credential must be cleared")
}

func TestSignIn_NotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)

	creds := credstore.NewMemoryStore()
	store := NewStore(provider, creds)

	var notified []*Identity
	store.Subscribe(func(identity *Identity) {
		notified = append(notified, identity)
	})

	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	require.Len(t, notified, 1)
	require.NotNil(t, notified[0])
	assert.Equal(t, "a@example.com", notified[0].Email)

	saved, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.UID)
}

func TestSignIn_FailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "wrong").
		Return(nil, idp.NewError(idp.CodeInvalidCredential, "INVALID_LOGIN_CREDENTIALS", nil))

	store := NewStore(provider, credstore.NewMemoryStore())
	store.Restore(ctx)

	var notifications int
	store.Subscribe(func(*Identity) { notifications++ })

	err := store.SignIn(ctx, "a@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, idp.CodeInvalidCredential, idp.CodeOf(err))

	snap := store.Snapshot()
	assert.False(t, snap.Resolving, "a failed attempt must still settle")
	assert.Nil(t, snap.Identity)
	assert.Zero(t, notifications, "no identity change happened")
}

func TestSignOut_Idempotent(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)

	creds := credstore.NewMemoryStore()
	store := NewStore(provider, creds)
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	var signOutNotifications int32
	store.Subscribe(func(identity *Identity) {
		if identity == nil {
			atomic.AddInt32(&signOutNotifications, 1)
		}
	})

	// Several failing requests may all trigger sign-out at once.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.SignOut(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&signOutNotifications),
		"concurrent sign-outs must produce exactly one visible transition")
	assert.False(t, store.Authenticated())

	_, err := creds.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestToken_Anonymous(t *testing.T) {
	store := NewStore(&testutil.MockProvider{}, credstore.NewMemoryStore())
	store.Restore(context.Background())

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestToken_RefreshesWhenExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := &now

	cred := testCredential("u1", "a@example.com", now.Add(time.Hour))
	rotated := &idp.Credential{
		UID:          "u1",
		IDToken:      "rotated-token",
		RefreshToken: "rotated-refresh",
		ExpiresAt:    now.Add(2 * time.Hour),
	}

	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)
	provider.On("Refresh", mock.Anything, "refresh-u1").Return(rotated, nil).Once()

	creds := credstore.NewMemoryStore()
	store := NewStore(provider, creds, WithClock(func() time.Time { return *clock }))
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	// Fresh token: no refresh call.
	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-token-u1", token)

	var rotationNotified bool
	store.Subscribe(func(identity *Identity) {
		if identity != nil {
			rotationNotified = true
		}
	})

	// Advance past expiry: the next read rotates.
	now = now.Add(2 * time.Hour)
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", token)
	assert.True(t, rotationNotified, "rotation is an identity change subscribers must see")

	saved, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", saved.IDToken, "the rotated credential must be persisted")

	// And the rotated token is served from state afterwards.
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", token)
	provider.AssertExpectations(t)
}

func TestToken_SignOutDuringRefresh(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	cred := testCredential("u1", "a@example.com", now.Add(-time.Hour))
	rotated := &idp.Credential{
		UID:          "u1",
		IDToken:      "rotated-token",
		RefreshToken: "rotated-refresh",
		ExpiresAt:    now.Add(time.Hour),
	}

	store := (*Store)(nil)
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)
	provider.On("Refresh", mock.Anything, "refresh-u1").
		Run(func(mock.Arguments) {
			// The user signs out while the refresh round-trip is in flight.
			require.NoError(t, store.SignOut(ctx))
		}).
		Return(rotated, nil)

	store = NewStore(provider, credstore.NewMemoryStore())
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	_, err := store.Token(ctx)
	require.Error(t, err, "a token for a session that no longer exists must not be returned")
	assert.Equal(t, idp.CodeTokenExpired, idp.CodeOf(err))
	assert.False(t, store.Authenticated(), "the racing refresh must not resurrect the session")
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)

	store := NewStore(provider, credstore.NewMemoryStore())

	var calls int
	unsubscribe := store.Subscribe(func(*Identity) { calls++ })
	unsubscribe()
	unsubscribe() // second call is a no-op

	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))
	assert.Zero(t, calls)
}

func TestUpdateProfile_UpdatesIdentity(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	updated := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	updated.DisplayName = "New Name"

	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)
	provider.On("UpdateProfile", mock.Anything, "id-token-u1", "New Name", "").Return(updated, nil)

	store := NewStore(provider, credstore.NewMemoryStore())
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	var notified *Identity
	store.Subscribe(func(identity *Identity) { notified = identity })

	require.NoError(t, store.UpdateProfile(ctx, "New Name", ""))

	snap := store.Snapshot()
	assert.False(t, snap.Resolving)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "New Name", snap.Identity.DisplayName)
	require.NotNil(t, notified)
	assert.Equal(t, "New Name", notified.DisplayName)
}

func TestUpdateProfile_FailureSettles(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))

	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)
	provider.On("UpdateProfile", mock.Anything, "id-token-u1", "New Name", "").
		Return(nil, idp.NewError(idp.CodeNetwork, "identity service unreachable", nil))

	store := NewStore(provider, credstore.NewMemoryStore())
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	err := store.UpdateProfile(ctx, "New Name", "")
	require.Error(t, err)

	snap := store.Snapshot()
	assert.False(t, snap.Resolving, "a failed update must still settle")
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "Test User", snap.Identity.DisplayName, "the previous identity stands")
}

func TestUpdateProfile_SignOutDuringUpdate(t *testing.T) {
	ctx := context.Background()
	cred := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	updated := testCredential("u1", "a@example.com", time.Now().Add(time.Hour))
	updated.DisplayName = "New Name"

	store := (*Store)(nil)
	provider := &testutil.MockProvider{}
	provider.On("SignIn", mock.Anything, "a@example.com", "secret").Return(cred, nil)
	provider.On("UpdateProfile", mock.Anything, "id-token-u1", "New Name", "").
		Run(func(mock.Arguments) {
			// The user signs out while the update round trip is in flight.
			require.NoError(t, store.SignOut(ctx))
		}).
		Return(updated, nil)

	store = NewStore(provider, credstore.NewMemoryStore())
	require.NoError(t, store.SignIn(ctx, "a@example.com", "secret"))

	err := store.UpdateProfile(ctx, "New Name", "")
	require.Error(t, err, "the update must not land on a session that ended")
	assert.Equal(t, idp.CodeTokenExpired, idp.CodeOf(err))
	assert.False(t, store.Authenticated(), "the racing update must not resurrect the session")
	assert.False(t, store.Snapshot().Resolving)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	store := NewStore(&testutil.MockProvider{}, credstore.NewMemoryStore())
	store.Restore(context.Background())

	err := store.UpdateProfile(context.Background(), "New Name", "")
	require.Error(t, err)
	assert.Equal(t, idp.CodeUserNotFound, idp.CodeOf(err))
}
