package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/bref/config.yml.
type GlobalConfig struct {
	VaultPath string `yaml:"vault_path,omitempty"` // Default vault when not inside one
	Mailto    string `yaml:"mailto,omitempty"`     // Contact address for the Crossref polite pool
	CacheTTL  string `yaml:"cache_ttl,omitempty"`  // Go duration, e.g. 720h; "0" disables the cache
	UserAgent string `yaml:"user_agent,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bref"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// DefaultCacheTTL is used when cache_ttl is unset.
	DefaultCacheTTL = 30 * 24 * time.Hour

	// EnvMailto and EnvVault override the file values.
	EnvMailto = "BREF_MAILTO"
	EnvVault  = "BREF_VAULT"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bref/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns an empty config (not an error) if the file
// doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	var cfg GlobalConfig

	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvMailto); v != "" {
		cfg.Mailto = v
	}
	if v := os.Getenv(EnvVault); v != "" {
		cfg.VaultPath = v
	}
	if cfg.VaultPath != "" {
		cfg.VaultPath = ExpandPath(cfg.VaultPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// CacheTTLDuration parses cache_ttl. Zero means caching is disabled.
func (g *GlobalConfig) CacheTTLDuration() (time.Duration, error) {
	if g.CacheTTL == "" {
		return DefaultCacheTTL, nil
	}
	d, err := time.ParseDuration(g.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache_ttl %q: %w", g.CacheTTL, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid cache_ttl %q: negative", g.CacheTTL)
	}
	return d, nil
}

// ResolveVault finds the vault containing start, falling back to the
// configured vault_path.
func ResolveVault(start string) (string, error) {
	root, err := FindVault(start)
	if err == nil {
		return root, nil
	}

	cfg, cfgErr := LoadGlobalConfig()
	if cfgErr != nil {
		return "", cfgErr
	}
	if cfg.VaultPath != "" && IsVault(cfg.VaultPath) {
		return cfg.VaultPath, nil
	}
	return "", err
}

// HelpfulConfigMessage returns a hint shown when no vault can be found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No bibref vault found.

Run 'bref init' in your notes folder, or set a default vault in %s:
  mkdir -p %s
  echo 'vault_path: /path/to/your/vault' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
