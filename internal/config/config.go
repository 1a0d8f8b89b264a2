package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"statecast/internal/domain"
)

// Config events, published when a source emitter is attached.
var (
	ActionConfigLoaded = domain.CustomAction("config_loaded")
	ActionConfigSaved  = domain.CustomAction("config_saved")
)

// Config is the application configuration.
type Config struct {
	Version         int           `toml:"version"`
	PowerSupplyPath string        `toml:"power_supply_path"`
	PollInterval    time.Duration `toml:"poll_interval"`
	TickInterval    time.Duration `toml:"tick_interval"`
	LogFile         string        `toml:"log_file"`
	UISettings      UISettings    `toml:"ui"`
}

// UISettings is UI-related configuration.
type UISettings struct {
	ShowEventLog bool `toml:"show_event_log"`
	ShowHelp     bool `toml:"show_help"`
}

// Emitter lets the service announce loads and saves as events.
type Emitter interface {
	Emit(ev domain.Event)
}

// Service handles configuration management.
type Service interface {
	Load() (*Config, error)
	Save(cfg *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(cfg *Config, path string) error
}

type service struct {
	emitter  Emitter
	filePath string
}

// NewService resolves the default config location under the user config
// directory.
func NewService() Service {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return &service{filePath: filepath.Join(configDir, "statecast", "config.toml")}
}

// NewServiceWithEmitter creates a service announcing loads and saves on the
// given emitter.
func NewServiceWithEmitter(emitter Emitter) Service {
	s := NewService().(*service)
	s.emitter = emitter
	return s
}

// Load reads the config from the default location, falling back to defaults
// when no file exists.
func (s *service) Load() (*Config, error) {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		cfg := Default()
		s.emitLoaded(cfg)
		return cfg, nil
	}

	cfg, err := s.LoadFromPath(s.filePath)
	if err != nil {
		return nil, err
	}
	s.emitLoaded(cfg)
	return cfg, nil
}

// Save writes the config to the default location.
func (s *service) Save(cfg *Config) error {
	if err := s.SaveToPath(cfg, s.filePath); err != nil {
		return err
	}
	if s.emitter != nil {
		s.emitter.Emit(domain.NewEvent(ActionConfigSaved, nil))
	}
	return nil
}

// LoadFromPath reads the config at path.
func (s *service) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// SaveToPath writes the config to path, creating parent directories.
func (s *service) SaveToPath(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (s *service) emitLoaded(cfg *Config) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(domain.NewEvent(ActionConfigLoaded, map[string]any{
		"poll_interval": cfg.PollInterval.String(),
		"log_file":      cfg.LogFile,
	}))
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:         1,
		PowerSupplyPath: "/sys/class/power_supply",
		PollInterval:    5 * time.Second,
		TickInterval:    time.Minute,
		LogFile:         "statecast.log",
		UISettings: UISettings{
			ShowEventLog: true,
			ShowHelp:     true,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.PowerSupplyPath == "" {
		cfg.PowerSupplyPath = def.PowerSupplyPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.LogFile == "" {
		cfg.LogFile = def.LogFile
	}
}
