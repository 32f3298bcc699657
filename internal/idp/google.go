package idp

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider runs the external Google OAuth code flow. The resulting
// access token is handed to the identity service (SignInWithIDP) to mint a
// platform credential.
type GoogleProvider struct {
	config oauth2.Config
}

// NewGoogleProvider creates the external Google OAuth client
func NewGoogleProvider(clientID, clientSecret, redirectURI string) *GoogleProvider {
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// ProviderID is the identity service's identifier for this external provider
func (p *GoogleProvider) ProviderID() string {
	return "google.com"
}

// AuthURL generates the authorization URL the user visits in a browser
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges an authorization code for tokens
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, NewError(CodeInvalidCredential, "authorization code exchange failed", err)
	}
	return token, nil
}
