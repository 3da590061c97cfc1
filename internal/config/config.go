// Package config handles vault and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Config represents vault configuration stored in .bibref/config.json.
type Config struct {
	NotesFolder     string `json:"notes_folder"`               // Folder for reference notes, relative to the vault
	BibFile         string `json:"bib_file,omitempty"`         // .bib file kept in sync by `bref add --bib`
	NoteTemplate    string `json:"note_template,omitempty"`    // text/template file, relative to the vault; empty uses the built-in
	CrossrefLinking bool   `json:"crossref_linking"`           // Emit parent entries linked by crossref
	MonthNames      bool   `json:"month_names"`                // Write months as jan..dec macros
	IncludeAbstract bool   `json:"include_abstract"`           // Include abstracts in BibTeX
	CiteKeyPattern  string `json:"cite_key_pattern,omitempty"` // e.g. {last}{year}-{suffix}
}

const (
	VaultDir    = ".bibref"
	ConfigFile  = "config.json"
	RefsFile    = "refs.jsonl"
	CacheDir    = "cache"
	DBFile      = "refs.db"
	LookupsFile = "lookups.db"

	DefaultNotesFolder = "references"
	DefaultBibFile     = "references.bib"
)

// ErrNotVault is returned when no .bibref directory can be found.
var ErrNotVault = errors.New("not in a bibref vault (no .bibref directory found)")

// ErrUnknownKey is returned by Get and Set for unsupported keys.
var ErrUnknownKey = errors.New("unknown config key")

// Default returns the configuration written by `bref init`.
func Default() *Config {
	return &Config{
		NotesFolder: DefaultNotesFolder,
		BibFile:     DefaultBibFile,
		MonthNames:  true,
	}
}

// VaultPath returns the path to the .bibref directory from a root path.
func VaultPath(root string) string {
	return filepath.Join(root, VaultDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, VaultDir, ConfigFile)
}

// RefsPath returns the path to refs.jsonl from a root path.
func RefsPath(root string) string {
	return filepath.Join(root, VaultDir, RefsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, VaultDir, CacheDir)
}

// DBPath returns the path to the library search index from a root path.
func DBPath(root string) string {
	return filepath.Join(root, VaultDir, CacheDir, DBFile)
}

// LookupsPath returns the path to the lookup cache database from a root path.
func LookupsPath(root string) string {
	return filepath.Join(root, VaultDir, CacheDir, LookupsFile)
}

// IsVault checks if the given path contains a .bibref directory.
func IsVault(root string) bool {
	info, err := os.Stat(VaultPath(root))
	return err == nil && info.IsDir()
}

// FindVault walks up from the given path to find a vault.
// Returns the vault root path or ErrNotVault.
func FindVault(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsVault(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotVault
		}
		abs = parent
	}
}

// Load reads configuration from the vault at the given root.
// Keys missing from the file keep their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the vault at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// field describes one settable key.
type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

var fields = map[string]field{
	"notes_folder": {
		get: func(c *Config) string { return c.NotesFolder },
		set: func(c *Config, v string) error { return setFolder(&c.NotesFolder, v) },
	},
	"bib_file": {
		get: func(c *Config) string { return c.BibFile },
		set: func(c *Config, v string) error { c.BibFile = v; return nil },
	},
	"note_template": {
		get: func(c *Config) string { return c.NoteTemplate },
		set: func(c *Config, v string) error { c.NoteTemplate = v; return nil },
	},
	"crossref_linking": {
		get: func(c *Config) string { return strconv.FormatBool(c.CrossrefLinking) },
		set: func(c *Config, v string) error { return setBool(&c.CrossrefLinking, v) },
	},
	"month_names": {
		get: func(c *Config) string { return strconv.FormatBool(c.MonthNames) },
		set: func(c *Config, v string) error { return setBool(&c.MonthNames, v) },
	},
	"include_abstract": {
		get: func(c *Config) string { return strconv.FormatBool(c.IncludeAbstract) },
		set: func(c *Config, v string) error { return setBool(&c.IncludeAbstract, v) },
	},
	"cite_key_pattern": {
		get: func(c *Config) string { return c.CiteKeyPattern },
		set: func(c *Config, v string) error { c.CiteKeyPattern = v; return nil },
	},
}

// Keys lists the supported config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a config value as a string.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys())
	}
	return f.get(c), nil
}

// Set parses and stores a config value.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys())
	}
	return f.set(c, value)
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", v)
	}
	*dst = b
	return nil
}

func setFolder(dst *string, v string) error {
	if v == "" {
		return errors.New("notes_folder cannot be empty")
	}
	if filepath.IsAbs(v) {
		return fmt.Errorf("notes_folder must be relative to the vault: %s", v)
	}
	*dst = filepath.Clean(v)
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
