package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soreli/soreli-cli/internal/log"
)

// RESTProvider speaks the hosted identity service's token-granting REST API.
type RESTProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// RESTOption configures the REST provider
type RESTOption func(*RESTProvider)

// WithHTTPClient overrides the HTTP client (for testing)
func WithHTTPClient(client *http.Client) RESTOption {
	return func(p *RESTProvider) {
		p.httpClient = client
	}
}

// NewRESTProvider creates a provider against the given identity service endpoint
func NewRESTProvider(endpoint, apiKey string, opts ...RESTOption) *RESTProvider {
	p := &RESTProvider{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// accountResponse is the identity service's account operation payload
type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// tokenResponse is the refresh grant payload; the token endpoint uses
// snake_case unlike the account endpoints
type tokenResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp registers a new email/password account
func (p *RESTProvider) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return credentialFromAccount(&resp), nil
}

// SignIn exchanges email/password for a credential
func (p *RESTProvider) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return credentialFromAccount(&resp), nil
}

// SignInWithIDP exchanges an external provider's access token for a credential
func (p *RESTProvider) SignInWithIDP(ctx context.Context, providerID, accessToken string) (*Credential, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":          fmt.Sprintf("access_token=%s&providerId=%s", accessToken, providerID),
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return credentialFromAccount(&resp), nil
}

// Refresh rotates the bearer token using the refresh grant
func (p *RESTProvider) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	var resp tokenResponse
	err := p.post(ctx, "token", map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFrom(resp.IDToken, resp.ExpiresIn),
	}
	return cred, nil
}

// UpdateProfile updates display name and/or photo URL
func (p *RESTProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Credential, error) {
	body := map[string]any{
		"idToken":           idToken,
		"returnSecureToken": true,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}

	var resp accountResponse
	if err := p.post(ctx, "accounts:update", body, &resp); err != nil {
		return nil, err
	}
	return credentialFromAccount(&resp), nil
}

func (p *RESTProvider) post(ctx context.Context, action string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewError(CodeInternal, "encoding request", err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", p.endpoint, action, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return NewError(CodeInternal, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return NewError(CodeCancelled, "request cancelled", err)
		}
		return NewError(CodeNetwork, "identity service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return NewError(CodeInternal, fmt.Sprintf("identity service returned status %d", resp.StatusCode), nil)
		}
		// Messages may carry a trailing detail, e.g. "INVALID_PASSWORD : ..."
		serverCode := strings.TrimSpace(strings.SplitN(errResp.Error.Message, ":", 2)[0])
		code := classifyServerCode(serverCode)
		log.LogDebugWithFields("idp", "Identity service rejected request", map[string]any{
			"action": action,
			"status": resp.StatusCode,
			"code":   string(code),
		})
		return NewError(code, serverCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(CodeInternal, "decoding response", err)
	}
	return nil
}

func credentialFromAccount(resp *accountResponse) *Credential {
	return &Credential{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoURL,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFrom(resp.IDToken, resp.ExpiresIn),
	}
}

// expiryFrom prefers the explicit expiresIn duration and falls back to the
// token's own exp claim
func expiryFrom(idToken, expiresIn string) time.Time {
	if expiresIn != "" {
		if seconds, err := strconv.Atoi(expiresIn); err == nil {
			return time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
	return tokenExpiry(idToken)
}

var _ Provider = (*RESTProvider)(nil)
