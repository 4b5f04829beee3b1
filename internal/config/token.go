package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

const tokenKey = "api.token"

// GetAPIToken returns the bearer token protecting the management API. The
// PSYCHSYNC_API_TOKEN environment variable wins; otherwise the token is read
// from the config backend, generated on first use, and persisted.
func GetAPIToken() (string, error) {
	return getAPITokenWith(newFileBackend(configFilePath()))
}

func getAPITokenWith(b ConfigBackend) (string, error) {
	if tok := os.Getenv("PSYCHSYNC_API_TOKEN"); tok != "" {
		return tok, nil
	}

	tok, ok, err := b.GetString(tokenKey)
	if err != nil {
		return "", fmt.Errorf("reading API token: %w", err)
	}
	if ok && tok != "" {
		return tok, nil
	}

	tok = uuid.New().String()
	if err := b.SetString(tokenKey, tok); err != nil {
		return "", fmt.Errorf("persisting API token: %w", err)
	}
	return tok, nil
}
