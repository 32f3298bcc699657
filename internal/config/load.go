package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, "v1") {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Parse directly into the typed Config struct. The custom UnmarshalJSON
	// methods resolve env vars immediately.
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig rejects secrets written inline before env resolution runs
func validateRawConfig(rawConfig map[string]any) error {
	identity, ok := rawConfig["identity"].(map[string]any)
	if !ok {
		return nil
	}

	secretFields := map[string]any{
		"apiKey": identity["apiKey"],
	}
	if google, ok := identity["google"].(map[string]any); ok {
		secretFields["google.clientSecret"] = google["clientSecret"]
	}

	for name, value := range secretFields {
		if value == nil {
			continue
		}
		if _, isString := value.(string); isString {
			return fmt.Errorf("%s must use an environment variable reference for security", name)
		}
		if refMap, isMap := value.(map[string]any); isMap {
			if _, hasEnv := refMap["$env"]; !hasEnv {
				return fmt.Errorf("%s must use {\"$env\": \"VAR_NAME\"} format", name)
			}
		}
	}
	return nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("api.baseURL is required")
	}
	if _, err := url.Parse(config.API.BaseURL); err != nil {
		return fmt.Errorf("api.baseURL is not a valid URL: %w", err)
	}

	if config.Identity.Endpoint == "" {
		return fmt.Errorf("identity.endpoint is required")
	}
	if config.Identity.APIKey == "" {
		return fmt.Errorf("identity.apiKey is required")
	}

	if google := config.Identity.Google; google != nil {
		if google.ClientID == "" {
			return fmt.Errorf("identity.google.clientId is required")
		}
		if google.ClientSecret == "" {
			return fmt.Errorf("identity.google.clientSecret is required")
		}
		if google.RedirectURI == "" {
			return fmt.Errorf("identity.google.redirectUri is required")
		}
	}

	if creds := config.Credentials; creds != nil {
		switch creds.Storage {
		case "", CredentialStorageMemory:
		case CredentialStorageFile:
			if creds.Path == "" {
				return fmt.Errorf("credentials.path is required when using file storage")
			}
		default:
			return fmt.Errorf("unknown credentials.storage: %s", creds.Storage)
		}
	}

	return nil
}
