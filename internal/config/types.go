package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// UnmarshalJSON accepts either a literal string or an {"$env": "VAR"} reference.
// Environment references are resolved immediately at parse time.
func (s *Secret) UnmarshalJSON(data []byte) error {
	value, err := resolveValue(data)
	if err != nil {
		return err
	}
	*s = Secret(value)
	return nil
}

// EnvString is a plain string that also supports {"$env": "VAR"} references
type EnvString string

// UnmarshalJSON resolves env references at parse time
func (s *EnvString) UnmarshalJSON(data []byte) error {
	value, err := resolveValue(data)
	if err != nil {
		return err
	}
	*s = EnvString(value)
	return nil
}

func resolveValue(data []byte) (string, error) {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		return literal, nil
	}

	var ref struct {
		Env string `json:"$env"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("value must be a string or an {\"$env\": \"VAR\"} reference")
	}
	if ref.Env == "" {
		return "", fmt.Errorf("$env reference is missing the variable name")
	}

	value, ok := os.LookupEnv(ref.Env)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref.Env)
	}
	return value, nil
}

// CredentialStorage selects how the signed-in credential is persisted
type CredentialStorage string

const (
	CredentialStorageMemory CredentialStorage = "memory"
	CredentialStorageFile   CredentialStorage = "file"
)

// APIConfig points the client at the lesson platform backend
type APIConfig struct {
	BaseURL string `json:"baseURL"`
}

// GoogleConfig holds the external provider OAuth client
type GoogleConfig struct {
	ClientID     string `json:"clientId"`
	ClientSecret Secret `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri"`
}

// IdentityConfig configures the identity provider that issues session tokens
type IdentityConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   Secret        `json:"apiKey"`
	Google   *GoogleConfig `json:"google,omitempty"`
}

// CredentialsConfig configures local persistence of the signed-in credential
type CredentialsConfig struct {
	Storage CredentialStorage `json:"storage,omitempty"`
	Path    EnvString         `json:"path,omitempty"`
}

// Config is the full client configuration
type Config struct {
	Version     string             `json:"version"`
	API         APIConfig          `json:"api"`
	Identity    IdentityConfig     `json:"identity"`
	Credentials *CredentialsConfig `json:"credentials,omitempty"`
}
