// Package session holds the single source of truth for "who is signed in".
// The store settles exactly once per sign-in/out cycle and publishes every
// identity change (sign-in, sign-out, token refresh) to its subscribers so
// dependent caches can invalidate.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soreli/soreli-cli/internal/credstore"
	"github.com/soreli/soreli-cli/internal/idp"
	"github.com/soreli/soreli-cli/internal/log"
)

// Identity is the authenticated account reference exposed to the rest of the
// app. Bearer material stays inside the store.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Snapshot is an immutable view of the session state at one instant
type Snapshot struct {
	Identity  *Identity
	Resolving bool
}

// Authenticated reports whether an identity is present
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// Subscriber receives the identity (nil for anonymous) on every change
type Subscriber func(*Identity)

// Store owns the current credential and its loading state
type Store struct {
	provider idp.Provider
	creds    credstore.Store

	mu        sync.RWMutex
	cred      *idp.Credential
	resolving bool

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int

	now func() time.Time
}

// StoreOption configures the store
type StoreOption func(*Store)

// WithClock overrides the time source (for testing)
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store in the resolving state. Call Restore to settle it.
func NewStore(provider idp.Provider, creds credstore.Store, opts ...StoreOption) *Store {
	s := &Store{
		provider:  provider,
		creds:     creds,
		resolving: true,
		subs:      make(map[int]Subscriber),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for identity change notifications and returns an
// unsubscribe func. Unsubscribing twice is a no-op.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns the current session state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Identity:  identityOf(s.cred),
		Resolving: s.resolving,
	}
}

// Restore settles the initial resolving state from the persisted credential.
// An absent or unusable credential settles to anonymous; restore failures are
// not surfaced as errors because an anonymous session is a valid outcome.
func (s *Store) Restore(ctx context.Context) {
	cred, err := s.creds.Load(ctx)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			log.LogWarnWithFields("session", "Failed to load persisted credential", map[string]any{
				"error": err.Error(),
			})
		}
		s.settle(ctx, nil)
		return
	}

	// Always refresh on restore: the persisted bearer token is likely stale
	// and a dead refresh token must not produce a phantom session.
	refreshed, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		log.LogInfoWithFields("session", "Persisted credential no longer valid", map[string]any{
			"code": string(idp.CodeOf(err)),
		})
		_ = s.creds.Clear(ctx)
		s.settle(ctx, nil)
		return
	}

	mergeAccount(refreshed, cred)
	s.settle(ctx, refreshed)
	log.LogInfoWithFields("session", "Restored session", map[string]any{
		"email": refreshed.Email,
	})
}

// SignIn authenticates with email and password
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.beginResolving()
	cred, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.settleUnchanged()
		return err
	}
	s.settle(ctx, cred)
	return nil
}

// Register creates a new email/password account and signs it in
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.beginResolving()
	cred, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.settleUnchanged()
		return err
	}
	s.settle(ctx, cred)
	return nil
}

// SignInWithIDP completes an external provider sign-in using the access token
// obtained from the provider's code flow
func (s *Store) SignInWithIDP(ctx context.Context, providerID, accessToken string) error {
	s.beginResolving()
	cred, err := s.provider.SignInWithIDP(ctx, providerID, accessToken)
	if err != nil {
		s.settleUnchanged()
		return err
	}
	s.settle(ctx, cred)
	return nil
}

// SignOut clears the session. Signing out an anonymous session is a no-op, so
// concurrent invocations (e.g. several failing requests) produce exactly one
// visible transition.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	if s.cred == nil {
		s.mu.Unlock()
		return nil
	}
	email := s.cred.Email
	s.cred = nil
	s.resolving = false
	s.mu.Unlock()

	if err := s.creds.Clear(ctx); err != nil {
		log.LogWarnWithFields("session", "Failed to clear persisted credential", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("session", "Signed out", map[string]any{
		"email": email,
	})
	s.notify(nil)
	return nil
}

// UpdateProfile updates display name and/or photo URL on the signed-in account
func (s *Store) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()

	if cred == nil {
		return idp.NewError(idp.CodeUserNotFound, "no active session", nil)
	}

	s.beginResolving()
	updated, err := s.provider.UpdateProfile(ctx, cred.IDToken, displayName, photoURL)
	if err != nil {
		s.settleUnchanged()
		return err
	}
	mergeAccount(updated, cred)

	s.mu.Lock()
	// A sign-out or new sign-in may have raced the provider round trip; the
	// updated credential must not resurrect a session that ended.
	if s.cred == nil || s.cred.UID != updated.UID {
		s.resolving = false
		s.mu.Unlock()
		return idp.NewError(idp.CodeTokenExpired, "session changed during update", nil)
	}
	s.cred = updated
	s.resolving = false
	s.mu.Unlock()

	s.persist(ctx, updated)
	s.notify(identityOf(updated))
	return nil
}

// Token returns the current bearer token, refreshing it when expired. It is
// read at call time so callers always observe rotation. Anonymous sessions
// yield an empty token and no error.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()

	if cred == nil {
		return "", nil
	}
	if !cred.Expired(s.now()) {
		return cred.IDToken, nil
	}

	refreshed, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}
	mergeAccount(refreshed, cred)

	s.mu.Lock()
	// A sign-out or new sign-in may have raced the refresh; only install the
	// rotated token if the session still belongs to the same account.
	if s.cred == nil || s.cred.UID != refreshed.UID {
		s.mu.Unlock()
		return "", idp.NewError(idp.CodeTokenExpired, "session changed during refresh", nil)
	}
	s.cred = refreshed
	s.mu.Unlock()

	s.persist(ctx, refreshed)
	log.LogDebugWithFields("session", "Rotated bearer token", map[string]any{
		"email": refreshed.Email,
	})
	s.notify(identityOf(refreshed))
	return refreshed.IDToken, nil
}

// Authenticated reports whether a session currently exists
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

func (s *Store) beginResolving() {
	s.mu.Lock()
	s.resolving = true
	s.mu.Unlock()
}

// settleUnchanged ends a resolving interval without touching the credential.
// Used when a sign-in attempt fails: the previous state stands.
func (s *Store) settleUnchanged() {
	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()
}

// settle installs the credential, ends the resolving interval, persists, and
// notifies subscribers
func (s *Store) settle(ctx context.Context, cred *idp.Credential) {
	s.mu.Lock()
	s.cred = cred
	s.resolving = false
	s.mu.Unlock()

	if cred != nil {
		s.persist(ctx, cred)
	}
	s.notify(identityOf(cred))
}

func (s *Store) persist(ctx context.Context, cred *idp.Credential) {
	if err := s.creds.Save(ctx, cred); err != nil {
		log.LogWarnWithFields("session", "Failed to persist credential", map[string]any{
			"error": err.Error(),
		})
	}
}

// notify delivers to a copy of the subscriber list without holding the state
// lock, so subscribers may call back into the store
func (s *Store) notify(identity *Identity) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

func identityOf(cred *idp.Credential) *Identity {
	if cred == nil {
		return nil
	}
	return &Identity{
		UID:         cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		PhotoURL:    cred.PhotoURL,
	}
}

// mergeAccount carries account fields forward onto a refreshed credential;
// the token endpoint returns bearer material only
func mergeAccount(dst, src *idp.Credential) {
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.PhotoURL == "" {
		dst.PhotoURL = src.PhotoURL
	}
	if dst.UID == "" {
		dst.UID = src.UID
	}
}
