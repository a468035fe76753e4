// Package config resolves thingsync settings.
//
// Settings come from, in increasing precedence: built-in defaults, a config
// file (TOML or YAML), THINGSYNC_* environment variables and command line
// flags. Everything is read through a fresh viper instance and resolved into
// a Config value once; other packages receive that value and never read
// viper themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/thingsync/thingsync/internal/things/db"
	"github.com/thingsync/thingsync/internal/vault/note"
)

// EnvPrefix prefixes environment overrides, e.g. THINGSYNC_VAULT_ROOT.
const EnvPrefix = "THINGSYNC"

// Keys.
const (
	KeyDatabasePath   = "database.path"
	KeySearchDir      = "database.search-dir"
	KeyVaultRoot      = "vault.root"
	KeyVaultFolder    = "vault.folder"
	KeyFilterTags     = "filters.tags"
	KeyFilterProjects = "filters.projects"
	KeyFilterAreas    = "filters.areas"
	KeyIncludeProject = "tags.include-project"
	KeyIncludeArea    = "tags.include-area"
	KeyCustomTags     = "tags.custom"
	KeyHeaderDocument = "headers.document"
	KeyHeaderTask     = "headers.task"
	KeyHeaderDetails  = "headers.details"
	KeyHeaderList     = "headers.checklist"
	KeyImportedTag    = "imported-tag"
	KeyLogFile        = "log.file"
	KeyLogLevel       = "log.level"
)

// Config is the fully resolved configuration of a run.
type Config struct {
	Database    DatabaseConfig `toml:"database" yaml:"database"`
	Vault       VaultConfig    `toml:"vault" yaml:"vault"`
	Filters     FilterConfig   `toml:"filters" yaml:"filters"`
	Tags        TagConfig      `toml:"tags" yaml:"tags"`
	Headers     HeaderConfig   `toml:"headers" yaml:"headers"`
	ImportedTag string         `toml:"imported-tag" yaml:"imported-tag"`
	Log         LogConfig      `toml:"log" yaml:"log"`
}

// DatabaseConfig locates the Things database.
type DatabaseConfig struct {
	Path      string `toml:"path" yaml:"path"`
	SearchDir string `toml:"search-dir" yaml:"search-dir"`
}

// VaultConfig locates the output vault.
type VaultConfig struct {
	Root   string `toml:"root" yaml:"root"`
	Folder string `toml:"folder" yaml:"folder"`
}

// FilterConfig restricts which tasks are imported.
type FilterConfig struct {
	Tags     []string `toml:"tags" yaml:"tags"`
	Projects []string `toml:"projects" yaml:"projects"`
	Areas    []string `toml:"areas" yaml:"areas"`
}

// TagConfig controls the tags written to documents.
type TagConfig struct {
	IncludeProject bool     `toml:"include-project" yaml:"include-project"`
	IncludeArea    bool     `toml:"include-area" yaml:"include-area"`
	Custom         []string `toml:"custom" yaml:"custom"`
}

// HeaderConfig holds the section heading lines.
type HeaderConfig struct {
	Document  string `toml:"document" yaml:"document"`
	Task      string `toml:"task" yaml:"task"`
	Details   string `toml:"details" yaml:"details"`
	Checklist string `toml:"checklist" yaml:"checklist"`
}

// LogConfig controls logging.
type LogConfig struct {
	File  string `toml:"file" yaml:"file"`
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	h := note.DefaultHeaders()
	return &Config{
		Filters: FilterConfig{Tags: []string{}, Projects: []string{}, Areas: []string{}},
		Tags:    TagConfig{Custom: []string{}},
		Headers: HeaderConfig{
			Document:  h.Document,
			Task:      h.Task,
			Details:   h.Details,
			Checklist: h.Checklist,
		},
		ImportedTag: db.DefaultImportedTag,
		Log:         LogConfig{Level: "info"},
	}
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyDatabasePath, d.Database.Path)
	v.SetDefault(KeySearchDir, d.Database.SearchDir)
	v.SetDefault(KeyVaultRoot, d.Vault.Root)
	v.SetDefault(KeyVaultFolder, d.Vault.Folder)
	v.SetDefault(KeyFilterTags, "")
	v.SetDefault(KeyFilterProjects, "")
	v.SetDefault(KeyFilterAreas, "")
	v.SetDefault(KeyIncludeProject, d.Tags.IncludeProject)
	v.SetDefault(KeyIncludeArea, d.Tags.IncludeArea)
	v.SetDefault(KeyCustomTags, "")
	v.SetDefault(KeyHeaderDocument, d.Headers.Document)
	v.SetDefault(KeyHeaderTask, d.Headers.Task)
	v.SetDefault(KeyHeaderDetails, d.Headers.Details)
	v.SetDefault(KeyHeaderList, d.Headers.Checklist)
	v.SetDefault(KeyImportedTag, d.ImportedTag)
	v.SetDefault(KeyLogFile, d.Log.File)
	v.SetDefault(KeyLogLevel, d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// DefaultDir returns $XDG_CONFIG_HOME/thingsync, or ~/.config/thingsync.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "thingsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "thingsync")
}

// DefaultFile is the path config init writes to.
func DefaultFile() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Read loads a config file into v. An explicit path must exist. Without one,
// config.toml or config.yaml in DefaultDir is used when present. It returns
// the file used, or "".
func Read(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return v.ConfigFileUsed(), nil
	}

	dir := DefaultDir()
	if dir == "" {
		return "", nil
	}
	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Resolve turns the layered settings in v into a Config. List settings
// accept comma-separated strings or lists; malformed values become empty.
func Resolve(v *viper.Viper) *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      strings.TrimSpace(v.GetString(KeyDatabasePath)),
			SearchDir: strings.TrimSpace(v.GetString(KeySearchDir)),
		},
		Vault: VaultConfig{
			Root:   strings.TrimSpace(v.GetString(KeyVaultRoot)),
			Folder: strings.TrimSpace(v.GetString(KeyVaultFolder)),
		},
		Filters: FilterConfig{
			Tags:     db.NormalizeList(v.Get(KeyFilterTags)),
			Projects: db.NormalizeList(v.Get(KeyFilterProjects)),
			Areas:    db.NormalizeList(v.Get(KeyFilterAreas)),
		},
		Tags: TagConfig{
			IncludeProject: v.GetBool(KeyIncludeProject),
			IncludeArea:    v.GetBool(KeyIncludeArea),
			Custom:         db.NormalizeList(v.Get(KeyCustomTags)),
		},
		Headers: HeaderConfig{
			Document:  v.GetString(KeyHeaderDocument),
			Task:      v.GetString(KeyHeaderTask),
			Details:   v.GetString(KeyHeaderDetails),
			Checklist: v.GetString(KeyHeaderList),
		},
		ImportedTag: strings.TrimSpace(v.GetString(KeyImportedTag)),
		Log: LogConfig{
			File:  v.GetString(KeyLogFile),
			Level: v.GetString(KeyLogLevel),
		},
	}
}

// Load reads defaults, the config file at path (or the default location)
// and the environment.
func Load(path string) (*Config, error) {
	v := New()
	if _, err := Read(v, path); err != nil {
		return nil, err
	}
	return Resolve(v), nil
}

// Filter returns the task filter for a batch.
func (c *Config) Filter() db.Filter {
	return db.Filter{
		Tags:       c.Filters.Tags,
		Projects:   c.Filters.Projects,
		Areas:      c.Filters.Areas,
		ExcludeTag: c.ImportedTag,
	}
}

// NoteSettings returns the document writer settings.
func (c *Config) NoteSettings() note.Settings {
	return note.Settings{
		Folder:         c.Vault.Folder,
		IncludeProject: c.Tags.IncludeProject,
		IncludeArea:    c.Tags.IncludeArea,
		CustomTags:     c.Tags.Custom,
		Headers: note.Headers{
			Document:  c.Headers.Document,
			Task:      c.Headers.Task,
			Details:   c.Headers.Details,
			Checklist: c.Headers.Checklist,
		},
	}
}
