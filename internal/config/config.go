// Package config loads the settings shared by the airq commands from a
// YAML file, AIRQ_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zberg/go-airq/pkg/airq"
)

// EnvPrefix is prepended to every environment variable, e.g.
// AIRQ_DEVICE_PASSWORD for device.password.
const EnvPrefix = "AIRQ"

// Config holds the resolved settings.
type Config struct {
	Device   DeviceConfig   `mapstructure:"device"`
	Log      LogConfig      `mapstructure:"log"`
	Exporter ExporterConfig `mapstructure:"exporter"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
}

type DeviceConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	Port     int           `mapstructure:"port"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ExporterConfig struct {
	Listen string `mapstructure:"listen"`
}

type MQTTConfig struct {
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Topic    string        `mapstructure:"topic"`
	Interval time.Duration `mapstructure:"interval"`
}

// FlagBindings maps configuration keys to the command line flags that
// override them.
var FlagBindings = map[string]string{
	"device.address":  "address",
	"device.password": "password",
	"device.port":     "port",
	"device.timeout":  "timeout",
	"log.level":       "log-level",
	"exporter.listen": "listen",
	"mqtt.broker":     "broker",
	"mqtt.topic":      "topic",
	"mqtt.interval":   "interval",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.address", "")
	v.SetDefault("device.password", "")
	v.SetDefault("device.port", 80)
	v.SetDefault("device.timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("exporter.listen", ":9123")
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "airq")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "airq")
	v.SetDefault("mqtt.interval", time.Minute)
}

// Load resolves the configuration. Flags win over the environment, which
// wins over the file. An empty path looks for airq.yaml in the working
// directory and treats a missing file as empty. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("airq")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for key, name := range FlagBindings {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every device command needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Device.Address) == "" {
		return errors.New("device address is required (--address or AIRQ_DEVICE_ADDRESS)")
	}
	if c.Device.Password == "" {
		return errors.New("device password is required (--password or AIRQ_DEVICE_PASSWORD)")
	}
	if c.Device.Timeout <= 0 {
		return fmt.Errorf("device timeout must be positive, got %s", c.Device.Timeout)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// ClientOptions translates the device settings into client options.
func (c *Config) ClientOptions(logger *slog.Logger) []airq.ClientOption {
	return []airq.ClientOption{
		airq.WithPort(c.Device.Port),
		airq.WithTimeout(c.Device.Timeout),
		airq.WithLogger(logger),
	}
}

// NewClient builds a device client from the resolved settings.
func (c *Config) NewClient(logger *slog.Logger) (*airq.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return airq.NewClient(c.Device.Address, c.Device.Password, c.ClientOptions(logger)...)
}
