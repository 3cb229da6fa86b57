package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyDomain             = "atlassian.domain"
	KeyEmail              = "atlassian.email"
	KeyToken              = "atlassian.token"
	KeyIssueBatchSize     = "paging.issue_batch_size"
	KeyPageBatchSize      = "paging.page_batch_size"
	KeyScanRequestTimeout = "scan.request_timeout"
	KeyOutputDir          = "output.dir"
	KeyHistoryDBPath      = "history.db_path"

	EnvPrefix = "ATLBROWSE"
)

type Config struct {
	Atlassian AtlassianConfig `mapstructure:"atlassian"`
	Paging    PagingConfig    `mapstructure:"paging"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Output    OutputConfig    `mapstructure:"output"`
	History   HistoryConfig   `mapstructure:"history"`
}

// AtlassianConfig holds optional credential defaults. Anything left empty is
// prompted for when the interactive session starts.
type AtlassianConfig struct {
	Domain string `mapstructure:"domain"`
	Email  string `mapstructure:"email" validate:"omitempty,email"`
	Token  string `mapstructure:"token"`
}

type PagingConfig struct {
	IssueBatchSize int `mapstructure:"issue_batch_size" validate:"min=1,max=100"`
	PageBatchSize  int `mapstructure:"page_batch_size" validate:"min=1,max=100"`
}

type ScanConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type HistoryConfig struct {
	DBPath string `mapstructure:"db_path" validate:"required"`
}

// Keys lists every settable dotted key in document order.
func Keys() []string {
	return []string{
		KeyDomain,
		KeyEmail,
		KeyToken,
		KeyIssueBatchSize,
		KeyPageBatchSize,
		KeyScanRequestTimeout,
		KeyOutputDir,
		KeyHistoryDBPath,
	}
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# atlbrowse configuration
atlassian:
  # Site host, for example "your-domain.atlassian.net". Prompted when empty.
  domain: ""
  email: ""
  # Prefer ATLBROWSE_ATLASSIAN_TOKEN over storing the token here.
  token: ""

paging:
  issue_batch_size: 50
  page_batch_size: 50

scan:
  request_timeout: 30s

output:
  dir: "."

history:
  db_path: "./atlbrowse.db"
`
}

// ConfigureEnv binds ATLBROWSE_* environment variables to dotted keys, so
// ATLBROWSE_ATLASSIAN_TOKEN overrides atlassian.token.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Atlassian.Domain = strings.TrimSpace(cfg.Atlassian.Domain)
	cfg.Atlassian.Email = strings.TrimSpace(cfg.Atlassian.Email)
	cfg.Atlassian.Token = strings.TrimSpace(cfg.Atlassian.Token)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDomain, "")
	v.SetDefault(KeyEmail, "")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyIssueBatchSize, 50)
	v.SetDefault(KeyPageBatchSize, 50)
	v.SetDefault(KeyScanRequestTimeout, 30*time.Second)
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyHistoryDBPath, "./atlbrowse.db")
}
