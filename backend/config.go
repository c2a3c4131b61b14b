// ABOUTME: Configuration for the SurrealDB backend connection
// ABOUTME: Handles endpoint settings, device identity and token persistence
package backend

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultEndpoint is the WebSocket RPC endpoint of the backend.
	DefaultEndpoint = "ws://localhost:8000/rpc"

	// DefaultNamespace and DefaultDatabase scope all collections.
	DefaultNamespace = "creatorcrm"
	DefaultDatabase  = "crm"

	// DefaultAccess is the record-access method creators authenticate with.
	DefaultAccess = "creator"

	// AppName is used for the XDG config directory.
	AppName = "creatorcrm"

	// ConfigFileName is where we store local connection config.
	ConfigFileName = "config.json"
)

// Config holds backend connection settings plus the locally persisted
// session token so short-lived CLI invocations can resume a session.
type Config struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Database  string `json:"database,omitempty"`
	Access    string `json:"access,omitempty"`

	// DeviceID identifies this installation in logs and diagnostics.
	DeviceID string `json:"device_id,omitempty"`

	// Token is the JWT of the current session, empty when signed out.
	Token string `json:"token,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:  DefaultEndpoint,
		Namespace: DefaultNamespace,
		Database:  DefaultDatabase,
		Access:    DefaultAccess,
		DeviceID:  GenerateDeviceID(),
	}
}

// GenerateDeviceID generates a new ULID for device identification.
func GenerateDeviceID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, ConfigFileName), nil
}

// LoadConfig loads config from disk, applying defaults and environment
// overrides (CREATORCRM_ENDPOINT, CREATORCRM_NAMESPACE, CREATORCRM_DATABASE,
// CREATORCRM_ACCESS).
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			var stored Config
			if json.Unmarshal(data, &stored) == nil {
				merge(cfg, &stored)
			}
		}
	}

	if v := os.Getenv("CREATORCRM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("CREATORCRM_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("CREATORCRM_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("CREATORCRM_ACCESS"); v != "" {
		cfg.Access = v
	}

	return cfg, nil
}

func merge(cfg, stored *Config) {
	if stored.Endpoint != "" {
		cfg.Endpoint = stored.Endpoint
	}
	if stored.Namespace != "" {
		cfg.Namespace = stored.Namespace
	}
	if stored.Database != "" {
		cfg.Database = stored.Database
	}
	if stored.Access != "" {
		cfg.Access = stored.Access
	}
	if stored.DeviceID != "" {
		cfg.DeviceID = stored.DeviceID
	}
	cfg.Token = stored.Token
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// SetToken stores or clears the session token and saves.
func (c *Config) SetToken(token string) error {
	c.Token = token
	return c.Save()
}
