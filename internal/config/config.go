// File: internal/config/config.go
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Policy() PolicyConfig
	Agent() AgentConfig
	Executor() ExecutorConfig
	Observation() ObservationConfig
	Oracle() OracleConfig
	Store() StoreConfig

	// CLI overrides
	SetAutoApprove(bool)
	SetOracleProvider(OracleProvider)
	SetStoreDriver(StoreDriver)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	PolicyCfg      PolicyConfig      `mapstructure:"policy" yaml:"policy"`
	AgentCfg       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	ExecutorCfg    ExecutorConfig    `mapstructure:"executor" yaml:"executor"`
	ObservationCfg ObservationConfig `mapstructure:"observation" yaml:"observation"`
	OracleCfg      OracleConfig      `mapstructure:"oracle" yaml:"oracle"`
	StoreCfg       StoreConfig       `mapstructure:"store" yaml:"store"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Policy() PolicyConfig           { return c.PolicyCfg }
func (c *Config) Agent() AgentConfig             { return c.AgentCfg }
func (c *Config) Executor() ExecutorConfig       { return c.ExecutorCfg }
func (c *Config) Observation() ObservationConfig { return c.ObservationCfg }
func (c *Config) Oracle() OracleConfig           { return c.OracleCfg }
func (c *Config) Store() StoreConfig             { return c.StoreCfg }

func (c *Config) SetAutoApprove(b bool)              { c.PolicyCfg.AutoApprove = b }
func (c *Config) SetOracleProvider(p OracleProvider) { c.OracleCfg.Provider = p }
func (c *Config) SetStoreDriver(d StoreDriver)       { c.StoreCfg.Driver = d }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// PolicyConfig controls which processes may receive input and when the
// operator is asked first.
type PolicyConfig struct {
	// AllowedProcesses falls back to the built-in allowlist when empty.
	AllowedProcesses        []string `mapstructure:"allowed_processes" yaml:"allowed_processes"`
	SelfProcessNames        []string `mapstructure:"self_process_names" yaml:"self_process_names"`
	AutoApprove             bool     `mapstructure:"auto_approve" yaml:"auto_approve"`
	ConfirmCoordinateClicks bool     `mapstructure:"confirm_coordinate_clicks" yaml:"confirm_coordinate_clicks"`
}

// AgentConfig tunes the goal orchestrator.
type AgentConfig struct {
	MaxActionsPerStep int           `mapstructure:"max_actions_per_step" yaml:"max_actions_per_step"`
	RepeatThreshold   int           `mapstructure:"repeat_threshold" yaml:"repeat_threshold"`
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	Settle            time.Duration `mapstructure:"settle" yaml:"settle"`
	LaunchSettle      time.Duration `mapstructure:"launch_settle" yaml:"launch_settle"`
	HistorySize       int           `mapstructure:"history_size" yaml:"history_size"`
}

// ExecutorConfig tunes the action executor.
type ExecutorConfig struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	OutputPreview  int           `mapstructure:"output_preview" yaml:"output_preview"`
	DefaultShell   string        `mapstructure:"default_shell" yaml:"default_shell"`
}

// ObservationConfig tunes screen capture.
type ObservationConfig struct {
	CaptureInterval time.Duration `mapstructure:"capture_interval" yaml:"capture_interval"`
	MaxWidth        int           `mapstructure:"max_width" yaml:"max_width"`
	JPEGQuality     int           `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	Overlay         string        `mapstructure:"overlay" yaml:"overlay"`
}

// OracleProvider selects the oracle backend.
type OracleProvider string

const (
	ProviderGemini OracleProvider = "gemini"
	ProviderDemo   OracleProvider = "demo"
)

// OracleConfig configures the planning and action oracles.
type OracleConfig struct {
	Provider    OracleProvider `mapstructure:"provider" yaml:"provider"`
	APIKey      string         `mapstructure:"api_key" yaml:"api_key"`
	Model       string         `mapstructure:"model" yaml:"model"`
	Endpoint    string         `mapstructure:"endpoint" yaml:"endpoint"`
	Temperature float32        `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int            `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// StoreDriver selects where run journals go.
type StoreDriver string

const (
	DriverNone     StoreDriver = "none"
	DriverSQLite   StoreDriver = "sqlite"
	DriverPostgres StoreDriver = "postgres"
)

// StoreConfig configures the run journal.
type StoreConfig struct {
	Driver StoreDriver `mapstructure:"driver" yaml:"driver"`
	DSN    string      `mapstructure:"dsn" yaml:"dsn"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// DefaultShell is the shell RunCommand uses on this platform.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "sh"
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskpilot")
	v.SetDefault("logger.log_file", "~/.local/state/deskpilot/deskpilot.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Policy --
	v.SetDefault("policy.allowed_processes", []string{})
	v.SetDefault("policy.self_process_names", []string{"deskpilot", "deskpilot-ui"})
	v.SetDefault("policy.auto_approve", true)
	v.SetDefault("policy.confirm_coordinate_clicks", true)

	// -- Agent --
	v.SetDefault("agent.max_actions_per_step", 15)
	v.SetDefault("agent.repeat_threshold", 3)
	v.SetDefault("agent.max_attempts", 3)
	v.SetDefault("agent.retry_backoff", "250ms")
	v.SetDefault("agent.settle", "300ms")
	v.SetDefault("agent.launch_settle", "1500ms")
	v.SetDefault("agent.history_size", 10)

	// -- Executor --
	v.SetDefault("executor.command_timeout", "10s")
	v.SetDefault("executor.output_preview", 200)
	v.SetDefault("executor.default_shell", DefaultShell())

	// -- Observation --
	v.SetDefault("observation.capture_interval", "3s")
	v.SetDefault("observation.max_width", 1280)
	v.SetDefault("observation.jpeg_quality", 70)
	v.SetDefault("observation.overlay", "execution")

	// -- Oracle --
	v.SetDefault("oracle.provider", string(ProviderGemini))
	v.SetDefault("oracle.model", "gemini-2.5-flash")
	v.SetDefault("oracle.temperature", 0.2)
	v.SetDefault("oracle.timeout", "60s")
	v.SetDefault("oracle.max_tokens", 2048)

	// -- Store --
	v.SetDefault("store.driver", string(DriverSQLite))
	v.SetDefault("store.dsn", "~/.local/share/deskpilot/journal.db")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets come from the environment, never from a checked-in file.
	_ = v.BindEnv("oracle.api_key", "DESKPILOT_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("store.dsn", "DESKPILOT_STORE_DSN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.LoggerCfg.LogFile, err = homedir.Expand(c.LoggerCfg.LogFile); err != nil {
		return fmt.Errorf("logger.log_file: %w", err)
	}
	if c.StoreCfg.Driver == DriverSQLite {
		if c.StoreCfg.DSN, err = homedir.Expand(c.StoreCfg.DSN); err != nil {
			return fmt.Errorf("store.dsn: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.AgentCfg.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if c.ExecutorCfg.CommandTimeout <= 0 {
		return fmt.Errorf("executor.command_timeout must be a positive duration")
	}
	if err := c.ObservationCfg.Validate(); err != nil {
		return fmt.Errorf("observation configuration invalid: %w", err)
	}
	if err := c.OracleCfg.Validate(); err != nil {
		return fmt.Errorf("oracle configuration invalid: %w", err)
	}
	if err := c.StoreCfg.Validate(); err != nil {
		return fmt.Errorf("store configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the orchestrator limits.
func (a *AgentConfig) Validate() error {
	if a.MaxActionsPerStep <= 0 {
		return fmt.Errorf("max_actions_per_step must be a positive integer")
	}
	if a.RepeatThreshold <= 0 {
		return fmt.Errorf("repeat_threshold must be a positive integer")
	}
	if a.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be a positive integer")
	}
	if a.RetryBackoff < 0 || a.Settle < 0 || a.LaunchSettle < 0 {
		return fmt.Errorf("retry_backoff, settle and launch_settle must not be negative")
	}
	return nil
}

// Validate checks the capture settings.
func (o *ObservationConfig) Validate() error {
	switch strings.ToLower(o.Overlay) {
	case "execution", "coarse", "none":
	default:
		return fmt.Errorf("overlay must be one of execution, coarse, none (got %q)", o.Overlay)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}
	if o.CaptureInterval <= 0 {
		return fmt.Errorf("capture_interval must be a positive duration")
	}
	return nil
}

// Validate checks the oracle settings. A missing API key is not an error;
// the oracle factory degrades to the demo provider.
func (o *OracleConfig) Validate() error {
	switch o.Provider {
	case ProviderGemini:
		if o.Model == "" {
			return fmt.Errorf("model is required for the gemini provider")
		}
	case ProviderDemo:
	default:
		return fmt.Errorf("unsupported provider %q", o.Provider)
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

// Validate checks the journal settings.
func (s *StoreConfig) Validate() error {
	switch s.Driver {
	case DriverNone:
		return nil
	case DriverSQLite, DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("dsn is required for the %s driver", s.Driver)
		}
		return nil
	default:
		return fmt.Errorf("unsupported driver %q", s.Driver)
	}
}
