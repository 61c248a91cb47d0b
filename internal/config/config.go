package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for hr.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	Store       StoreConfig       `toml:"store"`
	Attachments AttachmentsConfig `toml:"attachments"`
	Vaults      []VaultConfig     `toml:"vaults"`
	Audit       AuditConfig       `toml:"audit"`
	Defaults    DefaultsConfig    `toml:"defaults"`
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
}

// StoreConfig selects the backend holding the register collections.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "memory", "sqlite", "postgres" or "redis"

	// sqlite
	DataDir string `toml:"data_dir,omitempty"`

	// postgres
	PostgresDSN string `toml:"postgres_dsn,omitempty"`

	// redis
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
}

// AttachmentsConfig selects the attachment backend and the upload limits enforced
// before anything reaches it.
type AttachmentsConfig struct {
	Type         string   `toml:"type"`               // "memory" or "sqlite"
	DataDir      string   `toml:"data_dir,omitempty"` // only used for type=sqlite
	MaxSize      int64    `toml:"max_size"`           // bytes; defaults to 5 MiB
	AllowedTypes []string `toml:"allowed_types"`
}

// VaultConfig represents configuration for a backup archive destination.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`

	// Static credentials for S3-compatible services. Leave empty to use the AWS
	// credential chain.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// AuditConfig bounds the audit ledger.
type AuditConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// DefaultsConfig seeds a fresh register.
type DefaultsConfig struct {
	SLAThresholdDays int    `toml:"sla_threshold_days"`
	AdminPassword    string `toml:"admin_password"`
}

// LogConfig controls the console log level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level string `toml:"level"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

const (
	DefaultAttachmentMaxSize = 5 * 1024 * 1024
	DefaultAuditMaxEntries   = 1000
	DefaultSLAThresholdDays  = 5
	DefaultServerAddr        = "127.0.0.1:8080"
	DefaultAdminPassword     = "admin123"
)

// DefaultAllowedTypes are the attachment MIME types accepted when none are configured.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// NewConfig creates a new Config rooted at baseDir with sqlite storage and a local
// filesystem vault.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Attachments: AttachmentsConfig{
			Type:         "sqlite",
			DataDir:      filepath.Join(baseDir, "db"),
			MaxSize:      DefaultAttachmentMaxSize,
			AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		Audit:    AuditConfig{MaxEntries: DefaultAuditMaxEntries},
		Defaults: DefaultsConfig{SLAThresholdDays: DefaultSLAThresholdDays, AdminPassword: DefaultAdminPassword},
		Log:      LogConfig{Level: "info"},
		Server:   ServerConfig{Addr: DefaultServerAddr},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// the file may carry the seed admin password
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
// It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
