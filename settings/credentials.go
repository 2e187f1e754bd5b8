// Package settings provides the on-disk locations used by bitrans and the
// credential store for API keys.
//
// User data lives in the XDG data directory:
//
//	$XDG_DATA_HOME/bitrans/  (default: ~/.local/share/bitrans/)
//
// Files stored there:
//   - auth.json: API keys, keyed by endpoint host
//   - cache.db: translation cache (see package cache)
//
// The settings file itself (config.yaml) lives in the XDG config directory,
// $XDG_CONFIG_HOME/bitrans/ (default: ~/.config/bitrans/).
//
// auth.json permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. BITRANS_API_KEY environment variable
//  3. This credential store
//  4. api_key in config.yaml
package settings

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName   = "bitrans"
	authFileName = "auth.json"
	cacheName    = "cache.db"
	configName   = "config.yaml"

	// EnvAPIKey overrides every stored API key.
	EnvAPIKey = "BITRANS_API_KEY"
)

// ---------------------------------------------------------------------------
// Auth entries
// ---------------------------------------------------------------------------

// Info is a stored credential for one endpoint host.
type Info struct {
	// Type is always "api" for now.
	Type string `json:"type"`
	// Key is the bearer token sent to the endpoint.
	Key string `json:"key,omitempty"`
	// URL is the full endpoint URL the key was saved for.
	URL string `json:"url,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == "api"
}

// Store holds all credentials, keyed by endpoint host.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// dataDir respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// configDir respects $XDG_CONFIG_HOME (falls back to ~/.config).
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// DataDir returns the bitrans data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ConfigFilePath returns the path of config.yaml.
func ConfigFilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName), nil
}

// CacheFilePath returns the path of the translation cache database.
func CacheFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, authFileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// HostKey returns the store key for an endpoint URL: its host, or the
// trimmed URL itself if it does not parse.
func HostKey(apiURL string) string {
	u, err := url.Parse(strings.TrimSpace(apiURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(apiURL)
	}
	return strings.ToLower(u.Host)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key for the endpoint (upsert).
func SetAPIKey(apiURL, key string) error {
	store := Load()
	store[HostKey(apiURL)] = &Info{Type: "api", Key: key, URL: apiURL}
	return Save(store)
}

// GetAPIKey retrieves the stored API key for the endpoint.
// Returns empty string if not found.
func GetAPIKey(apiURL string) string {
	info := Load()[HostKey(apiURL)]
	if info == nil || !info.IsAPI() {
		return ""
	}
	return info.Key
}

// Remove deletes the credential for the endpoint.
func Remove(apiURL string) error {
	store := Load()
	key := HostKey(apiURL)
	if _, ok := store[key]; !ok {
		return nil
	}
	delete(store, key)
	return Save(store)
}

// ResolveAPIKey applies the lookup order documented in the package comment.
// It returns the key and a short description of where it came from.
func ResolveAPIKey(flagKey, apiURL, configKey string) (string, string) {
	if flagKey != "" {
		return flagKey, "flag"
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env, EnvAPIKey
	}
	if stored := GetAPIKey(apiURL); stored != "" {
		return stored, "auth.json"
	}
	if configKey != "" {
		return configKey, "config.yaml"
	}
	return "", ""
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
