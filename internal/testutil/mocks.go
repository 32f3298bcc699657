package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/soreli/soreli-cli/internal/idp"
)

// MockProvider is a testify mock of the identity provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (*idp.Credential, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Credential), args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*idp.Credential, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Credential), args.Error(1)
}

func (m *MockProvider) SignInWithIDP(ctx context.Context, providerID, accessToken string) (*idp.Credential, error) {
	args := m.Called(ctx, providerID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Credential), args.Error(1)
}

func (m *MockProvider) Refresh(ctx context.Context, refreshToken string) (*idp.Credential, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Credential), args.Error(1)
}

func (m *MockProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*idp.Credential, error) {
	args := m.Called(ctx, idToken, displayName, photoURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Credential), args.Error(1)
}

var _ idp.Provider = (*MockProvider)(nil)

// StaticTokenSource is a fixed token source for API client tests
type StaticTokenSource struct {
	TokenValue string
	Err        error
	SignedIn   bool
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.TokenValue, s.Err
}

func (s *StaticTokenSource) Authenticated() bool {
	return s.SignedIn
}
