package internal

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/config"
	"github.com/soreli/soreli-cli/internal/credstore"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/idp"
	"github.com/soreli/soreli-cli/internal/log"
	"github.com/soreli/soreli-cli/internal/role"
	"github.com/soreli/soreli-cli/internal/session"
)

// App wires the session store, API client, role resolver, and guards into
// one application instance.
type App struct {
	Config   config.Config
	Sessions *session.Store
	API      *api.Client
	Roles    *role.Resolver
	Google   *idp.GoogleProvider

	// forcedOut is set when a 401/403 interception signed the user out. The
	// interceptor may fire from several concurrent requests; the flag makes
	// the redirect a single visible transition.
	forcedOut atomic.Bool
}

// NewApp builds the application from config
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	log.LogInfoWithFields("soreli", "Building client", map[string]any{
		"api":      cfg.API.BaseURL,
		"identity": cfg.Identity.Endpoint,
	})

	provider, err := idp.NewProvider(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to setup identity provider: %w", err)
	}

	creds, err := setupCredentialStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup credential store: %w", err)
	}

	app := &App{
		Config: cfg,
		Google: idp.NewExternalProvider(cfg.Identity),
	}
	app.Sessions = session.NewStore(provider, creds)
	app.API = api.NewClient(cfg.API.BaseURL,
		api.WithTokenSource(app.Sessions),
		api.WithUnauthorizedHandler(app.handleUnauthorized),
	)
	app.Roles = role.NewResolver(app.API, app.Sessions)

	// Settle the initial resolving interval before any command runs.
	app.Sessions.Restore(ctx)
	return app, nil
}

// Close releases subscriptions
func (a *App) Close() {
	a.Roles.Close()
}

// ForcedSignOut reports whether a 401/403 interception ended the session
// during this run
func (a *App) ForcedSignOut() bool {
	return a.forcedOut.Load()
}

// Evaluate runs the route guard for the given requirement. Role-gated routes
// resolve the role first so the decision is terminal, never pending.
func (a *App) Evaluate(ctx context.Context, req guard.Requirement, from string) guard.Decision {
	roleState := a.Roles.State()
	if (req.Role != "" || req.Premium) && a.Sessions.Authenticated() {
		roleState = a.Roles.Resolve(ctx)
	}
	return guard.Evaluate(a.Sessions.Snapshot(), roleState, req, from)
}

// handleUnauthorized is the global 401/403 side effect: sign out (only if a
// session exists) and flag the redirect. The triggering request's error still
// reaches its caller; this never replaces propagation.
func (a *App) handleUnauthorized(ctx context.Context) {
	if !a.Sessions.Authenticated() {
		return
	}
	if err := a.Sessions.SignOut(ctx); err != nil {
		log.LogErrorWithFields("soreli", "Sign-out after authorization failure failed", map[string]any{
			"error": err.Error(),
		})
	}
	if a.forcedOut.CompareAndSwap(false, true) {
		log.LogInfoWithFields("soreli", "Session ended by authorization failure", nil)
	}
}

func setupCredentialStore(cfg config.Config) (credstore.Store, error) {
	creds := cfg.Credentials
	if creds == nil || creds.Storage == "" || creds.Storage == config.CredentialStorageMemory {
		return credstore.NewMemoryStore(), nil
	}
	if creds.Storage != config.CredentialStorageFile {
		return nil, fmt.Errorf("unknown credential storage: %s", creds.Storage)
	}
	return credstore.NewFileStore(string(creds.Path)), nil
}
