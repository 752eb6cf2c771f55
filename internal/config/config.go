package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".config/ams"
	envPrefix  = "AMS"

	ModeSimulated = "simulated"
	ModeRemote    = "remote"

	SecretsAuto = "auto"
	SecretsPass = "pass"
	SecretsFile = "file"
)

type Settings struct {
	Mode          string        `mapstructure:"mode"`
	HTTP          HTTP          `mapstructure:"http"`
	Qikpod        Qikpod        `mapstructure:"qikpod"`
	Robot         Robot         `mapstructure:"robot"`
	Log           Log           `mapstructure:"log"`
	Notifications Notifications `mapstructure:"notifications"`
	Secrets       Secrets       `mapstructure:"secrets"`
	Operators     []Operator    `mapstructure:"operators"`
}

type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

type Qikpod struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthURL      string        `mapstructure:"auth_url"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Robot struct {
	Move          time.Duration `mapstructure:"move"`
	Pick          time.Duration `mapstructure:"pick"`
	Place         time.Duration `mapstructure:"place"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Secrets selects where the remote API token saved by `ams login` lives.
type Secrets struct {
	Backend    string `mapstructure:"backend"`
	PassPrefix string `mapstructure:"pass_prefix"`
	Dir        string `mapstructure:"dir"`
	TokenKey   string `mapstructure:"token_key"`
}

type Notifications struct {
	Capacity int `mapstructure:"capacity"`
}

type Operator struct {
	Name         string `mapstructure:"name"`
	PasswordHash string `mapstructure:"password_hash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeSimulated)
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.session_ttl", "12h")
	v.SetDefault("qikpod.base_url", "https://staging.qikpod.com/showcase")
	v.SetDefault("qikpod.auth_url", "https://staging.qikpod.com/nanostore")
	v.SetDefault("qikpod.token", "")
	v.SetDefault("qikpod.timeout", "10s")
	v.SetDefault("qikpod.poll_interval", "3s")
	v.SetDefault("robot.move", "1s")
	v.SetDefault("robot.pick", "1500ms")
	v.SetDefault("robot.place", "1500ms")
	v.SetDefault("robot.action_timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("notifications.capacity", 100)
	v.SetDefault("secrets.backend", SecretsAuto)
	v.SetDefault("secrets.pass_prefix", "ams")
	v.SetDefault("secrets.dir", "")
	v.SetDefault("secrets.token_key", "qikpod/token")
	v.SetDefault("catalog.path", "")
	v.SetDefault("history.path", "")
	v.SetDefault("history.max_entries", 500)
}

// Load reads the config file, AMS_* environment variables and defaults. An
// explicit path must exist; the default location is optional.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

func Decode(v *viper.Viper) (Settings, error) {
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}

	settings.Mode = strings.ToLower(strings.TrimSpace(settings.Mode))
	settings.Secrets.Backend = strings.ToLower(strings.TrimSpace(settings.Secrets.Backend))
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s Settings) Validate() error {
	switch s.Mode {
	case ModeSimulated, ModeRemote:
	default:
		return fmt.Errorf("unsupported mode %q (want %s or %s)", s.Mode, ModeSimulated, ModeRemote)
	}

	if s.Mode == ModeRemote && strings.TrimSpace(s.Qikpod.BaseURL) == "" {
		return errors.New("qikpod.base_url is required in remote mode")
	}
	switch s.Secrets.Backend {
	case SecretsAuto, SecretsPass, SecretsFile:
	default:
		return fmt.Errorf("unsupported secrets.backend %q", s.Secrets.Backend)
	}
	if s.Qikpod.PollInterval <= 0 {
		return errors.New("qikpod.poll_interval must be positive")
	}
	if s.Robot.Move < 0 || s.Robot.Pick < 0 || s.Robot.Place < 0 {
		return errors.New("robot phase durations must not be negative")
	}
	for i, operator := range s.Operators {
		if strings.TrimSpace(operator.Name) == "" || operator.PasswordHash == "" {
			return fmt.Errorf("operators[%d]: name and password_hash are required", i)
		}
	}

	return nil
}
