// Package config loads ledger configuration from an optional YAML file,
// an optional .env file and LEDGER_* environment variables, in that order
// of increasing priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir   string       `yaml:"data_dir"`
	Account   string       `yaml:"account"`
	LogDir    string       `yaml:"log_dir"`
	Verbose   bool         `yaml:"verbose"`
	SyncWrite bool         `yaml:"sync_write"`
	Backup    BackupConfig `yaml:"backup"`
}

// BackupConfig describes where `ledger backup` sends archives
type BackupConfig struct {
	// dir, s3, sftp or http
	Target string `yaml:"target"`
	// none, zstd or brotli
	Compression string     `yaml:"compression"`
	Dir         string     `yaml:"dir"`
	S3          S3Config   `yaml:"s3"`
	SFTP        SFTPConfig `yaml:"sftp"`
	HTTP        HTTPConfig `yaml:"http"`
}

type S3Config struct {
	Endpoint string `yaml:"endpoint"`
	Access   string `yaml:"access"`
	Secret   string `yaml:"secret"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
}

type SFTPConfig struct {
	User           string `yaml:"user"`
	Host           string `yaml:"host"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Dir            string `yaml:"dir"`
}

type HTTPConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

const (
	TargetDir  = "dir"
	TargetS3   = "s3"
	TargetSFTP = "sftp"
	TargetHTTP = "http"
)

func defaults() *Config {
	return &Config{
		DataDir: "data",
		LogDir:  "",
		Backup: BackupConfig{
			Target:      TargetDir,
			Compression: "zstd",
			Dir:         "backups",
		},
	}
}

// Load loads configuration. path is a YAML file, it's fine if it doesn't
// exist when it's the default. envPath is a .env file, "" means ".env" in
// the current directory (ignored if missing).
func Load(path string, envPath string) (*Config, error) {
	c := defaults()

	if path != "" {
		d, err := os.ReadFile(path)
		if err == nil {
			if err = yaml.Unmarshal(d, c); err != nil {
				return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// ignore error if not found
		_ = godotenv.Load()
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func setFromEnv(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func setBoolFromEnv(dst *bool, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = b
	return nil
}

func (c *Config) applyEnv() error {
	setFromEnv(&c.DataDir, "LEDGER_DATA_DIR")
	setFromEnv(&c.Account, "LEDGER_ACCOUNT")
	setFromEnv(&c.LogDir, "LEDGER_LOG_DIR")
	if err := setBoolFromEnv(&c.Verbose, "LEDGER_VERBOSE"); err != nil {
		return err
	}
	if err := setBoolFromEnv(&c.SyncWrite, "LEDGER_SYNC_WRITE"); err != nil {
		return err
	}

	b := &c.Backup
	setFromEnv(&b.Target, "LEDGER_BACKUP_TARGET")
	setFromEnv(&b.Compression, "LEDGER_BACKUP_COMPRESSION")
	setFromEnv(&b.Dir, "LEDGER_BACKUP_DIR")
	setFromEnv(&b.S3.Endpoint, "LEDGER_S3_ENDPOINT")
	setFromEnv(&b.S3.Access, "LEDGER_S3_ACCESS")
	setFromEnv(&b.S3.Secret, "LEDGER_S3_SECRET")
	setFromEnv(&b.S3.Bucket, "LEDGER_S3_BUCKET")
	setFromEnv(&b.S3.Region, "LEDGER_S3_REGION")
	setFromEnv(&b.S3.Prefix, "LEDGER_S3_PREFIX")
	setFromEnv(&b.SFTP.User, "LEDGER_SFTP_USER")
	setFromEnv(&b.SFTP.Host, "LEDGER_SFTP_HOST")
	setFromEnv(&b.SFTP.PrivateKeyPath, "LEDGER_SFTP_KEY")
	setFromEnv(&b.SFTP.Dir, "LEDGER_SFTP_DIR")
	setFromEnv(&b.HTTP.URL, "LEDGER_HTTP_URL")
	setFromEnv(&b.HTTP.APIKey, "LEDGER_HTTP_API_KEY")
	return nil
}

// Validate checks settings needed to open a store
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir is not set")
	}
	if c.Account == "" {
		return fmt.Errorf("account is not set (use -U <account> or LEDGER_ACCOUNT)")
	}
	if strings.ContainsAny(c.Account, `/\`) || c.Account == "." || c.Account == ".." {
		return fmt.Errorf("invalid account name '%s'", c.Account)
	}
	return nil
}

// Validate checks settings of configured backup target
func (b *BackupConfig) Validate() error {
	var missing []string
	need := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	switch b.Target {
	case TargetDir:
		need(b.Dir, "backup.dir")
	case TargetS3:
		need(b.S3.Endpoint, "backup.s3.endpoint")
		need(b.S3.Access, "backup.s3.access")
		need(b.S3.Secret, "backup.s3.secret")
		need(b.S3.Bucket, "backup.s3.bucket")
	case TargetSFTP:
		need(b.SFTP.User, "backup.sftp.user")
		need(b.SFTP.Host, "backup.sftp.host")
		need(b.SFTP.PrivateKeyPath, "backup.sftp.private_key_path")
		need(b.SFTP.Dir, "backup.sftp.dir")
	case TargetHTTP:
		need(b.HTTP.URL, "backup.http.url")
	default:
		return fmt.Errorf("unknown backup target '%s', must be one of: dir, s3, sftp, http", b.Target)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required backup settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
