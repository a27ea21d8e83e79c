package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "watchfeed"
	keyringAccount = "tmdb_api_key"
	envKey         = "TMDB_API_KEY"
)

// APIKey resolves the catalog API key: environment first (CI, cron), then
// the OS keychain (local dev).
func APIKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(envKey)); k != "" {
		return k, nil
	}
	if k, err := keyring.Get(KeyringService, keyringAccount); err == nil && strings.TrimSpace(k) != "" {
		return k, nil
	}
	return "", errors.New("TMDB API key not found (set TMDB_API_KEY or store it in the keychain)")
}

// SetAPIKey stores the key in the OS keychain for later runs.
func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

// DeleteAPIKey removes the stored key.
func DeleteAPIKey() error {
	return keyring.Delete(KeyringService, keyringAccount)
}
