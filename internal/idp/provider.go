package idp

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the account reference plus bearer material issued by the
// identity provider. The bearer token may rotate without the account changing.
type Credential struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the bearer token needs a refresh. A small skew
// keeps tokens from expiring mid-request.
func (c *Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt.Add(-30 * time.Second))
}

// Provider abstracts the identity service that issues session credentials.
type Provider interface {
	// SignUp registers a new email/password account.
	SignUp(ctx context.Context, email, password string) (*Credential, error)

	// SignIn exchanges email/password for a credential.
	SignIn(ctx context.Context, email, password string) (*Credential, error)

	// SignInWithIDP exchanges an external provider's access token for a credential.
	SignInWithIDP(ctx context.Context, providerID, accessToken string) (*Credential, error)

	// Refresh rotates the bearer token. The account identity is unchanged.
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)

	// UpdateProfile updates display name and/or photo URL for the signed-in account.
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Credential, error)
}

// tokenExpiry reads the exp claim from a bearer token without verifying it.
// Verification is the backend's job; the client only needs to know when to refresh.
func tokenExpiry(idToken string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
