package idp

import (
	"fmt"

	"github.com/soreli/soreli-cli/internal/config"
)

// NewProvider creates the identity Provider from config.
func NewProvider(cfg config.IdentityConfig) (Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("identity endpoint is required")
	}
	return NewRESTProvider(cfg.Endpoint, string(cfg.APIKey)), nil
}

// NewExternalProvider creates the external OAuth provider from config, or nil
// when no external provider is configured.
func NewExternalProvider(cfg config.IdentityConfig) *GoogleProvider {
	if cfg.Google == nil {
		return nil
	}
	return NewGoogleProvider(
		cfg.Google.ClientID,
		string(cfg.Google.ClientSecret),
		cfg.Google.RedirectURI,
	)
}
