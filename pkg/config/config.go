// Package config provides YAML-based configuration loading for udpkit
// applications.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the application
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Socket holds typed datagram socket settings
    Socket SocketConfig `mapstructure:"socket"`
}

// SocketConfig configures a typed datagram socket.
type SocketConfig struct {
    // Listen local address, e.g. "127.0.0.1:0" or ":7777"
    Listen string `mapstructure:"listen"`

    // MaxDatagramSize caps outbound payloads and sizes the receive buffer.
    // It is the silent-truncation boundary for oversized inbound datagrams.
    MaxDatagramSize int `mapstructure:"max_datagram_size"`

    // Codec content type: application/json, application/cbor,
    // application/x-protobuf
    Codec string `mapstructure:"codec"`

    // ReadBufferBytes/WriteBufferBytes set the kernel socket buffers when
    // non-zero.
    ReadBufferBytes  int `mapstructure:"read_buffer_bytes"`
    WriteBufferBytes int `mapstructure:"write_buffer_bytes"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "udpkit",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/udpkit.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Socket: SocketConfig{
            Listen:          "127.0.0.1:0",
            MaxDatagramSize: 64 * 1024,
            Codec:           "application/json",
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix UDPKIT and `.`/`-` are replaced with `_`.
// Example: UDPKIT_SOCKET_MAX_DATAGRAM_SIZE=1400
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("UDPKIT")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("socket.listen", cfg.Socket.Listen)
    v.SetDefault("socket.max_datagram_size", cfg.Socket.MaxDatagramSize)
    v.SetDefault("socket.codec", cfg.Socket.Codec)
    v.SetDefault("socket.read_buffer_bytes", cfg.Socket.ReadBufferBytes)
    v.SetDefault("socket.write_buffer_bytes", cfg.Socket.WriteBufferBytes)

    // Choose config file
    if path == "" {
        if envPath := os.Getenv("UDPKIT_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `udpkit`
        v.SetConfigName("udpkit")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".udpkit"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }

    if c.Socket.MaxDatagramSize <= 0 {
        return fmt.Errorf("invalid socket.max_datagram_size: %d", c.Socket.MaxDatagramSize)
    }
    c.Socket.Codec = strings.ToLower(strings.TrimSpace(c.Socket.Codec))
    switch c.Socket.Codec {
    case "", "application/json", "application/cbor", "application/x-protobuf":
        if c.Socket.Codec == "" {
            c.Socket.Codec = "application/json"
        }
    default:
        return fmt.Errorf("unknown socket.codec: %q", c.Socket.Codec)
    }
    if c.Socket.Listen == "" {
        c.Socket.Listen = "127.0.0.1:0"
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
