package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all bridge configuration
type Config struct {
	Nick        string   `yaml:"nick" toml:"nick" env:"NEBO_NICK" validate:"required,max=30"`
	Alternate   string   `yaml:"alternate" toml:"alternate" env:"NEBO_ALTERNATE"`
	Server      string   `yaml:"server" toml:"server" env:"NEBO_SERVER" validate:"required,hostname|ip"`
	Port        int      `yaml:"port" toml:"port" env:"NEBO_PORT" validate:"min=1,max=65535"`
	TLS         bool     `yaml:"tls" toml:"tls" env:"NEBO_TLS"`
	Proxy       string   `yaml:"proxy" toml:"proxy" env:"NEBO_PROXY" validate:"omitempty,url"`
	Encoding    string   `yaml:"encoding" toml:"encoding" env:"NEBO_ENCODING"`
	ServerPass  string   `yaml:"server_pass" toml:"server_pass" env:"NEBO_SERVER_PASS"`
	IRCName     string   `yaml:"irc_name" toml:"irc_name" env:"NEBO_IRC_NAME"`
	Username    string   `yaml:"username" toml:"username" env:"NEBO_USERNAME"`
	Invisible   bool     `yaml:"invisible" toml:"invisible" env:"NEBO_INVISIBLE"`
	Channels    []string `yaml:"channels" toml:"channels" env:"NEBO_CHANNELS" validate:"dive,startswith=#|startswith=&"`
	Contacts    []string `yaml:"contacts" toml:"contacts" env:"NEBO_CONTACTS" validate:"dive,required,max=30,excludesall=#&0x2C "`
	ContactPoll int      `yaml:"contact_poll_seconds" toml:"contact_poll_seconds" env:"NEBO_CONTACT_POLL" validate:"min=1"`
	QuitMessage string   `yaml:"quit_message" toml:"quit_message" env:"NEBO_QUIT_MESSAGE"`
	SendRate    float64  `yaml:"send_rate" toml:"send_rate" env:"NEBO_SEND_RATE" validate:"gte=0"`
	SendBurst   int      `yaml:"send_burst" toml:"send_burst" env:"NEBO_SEND_BURST" validate:"gte=0"`
	Ident       bool     `yaml:"ident" toml:"ident" env:"NEBO_IDENT"`
	IdentPort   int      `yaml:"ident_port" toml:"ident_port" env:"NEBO_IDENT_PORT" validate:"min=0,max=65535"`
	AdminPass   string   `yaml:"admin_pass" toml:"admin_pass" env:"NEBO_ADMIN_PASS"`
	DataDir     string   `yaml:"data_dir" toml:"data_dir" env:"NEBO_DATA_DIR"`
	StatusAddr  string   `yaml:"status_addr" toml:"status_addr" env:"NEBO_STATUS_ADDR" validate:"omitempty,hostname_port"`
	Debug       bool     `yaml:"debug" toml:"debug" env:"NEBO_DEBUG"`

	DCC DCC `yaml:"dcc" toml:"dcc"`
}

// DCC configures file offers made by the bridge
type DCC struct {
	// PublicAddress is advertised in offers; peers connect to it
	PublicAddress  string `yaml:"public_address" toml:"public_address" env:"NEBO_DCC_ADDRESS" validate:"omitempty,ipv4"`
	Port           int    `yaml:"port" toml:"port" env:"NEBO_DCC_PORT" validate:"min=0,max=65535"`
	BufferSize     int    `yaml:"buffer_size" toml:"buffer_size" env:"NEBO_DCC_BUFFER_SIZE" validate:"min=1,max=8192"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds" env:"NEBO_DCC_TIMEOUT" validate:"min=1"`
	Turbo          bool   `yaml:"turbo" toml:"turbo" env:"NEBO_DCC_TURBO"`
	BlockingAcks   bool   `yaml:"blocking_acks" toml:"blocking_acks" env:"NEBO_DCC_BLOCKING_ACKS"`
}

// ContactPollInterval returns ContactPoll as a duration
func (c *Config) ContactPollInterval() time.Duration {
	return time.Duration(c.ContactPoll) * time.Second
}

// Timeout returns TimeoutSeconds as a duration
func (d DCC) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Port:        6667,
		DataDir:     "./data",
		QuitMessage: "Shutting down",
		IdentPort:   113,
		ContactPoll: 60,
		DCC: DCC{
			BufferSize:     4096,
			TimeoutSeconds: 60,
		},
	}
}

// Load reads a YAML or TOML configuration file, chosen by extension, then
// applies a .env file next to it and NEBO_* environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its validate tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides sets every field whose env variable is present
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if key := field.Tag.Get("env"); key != "" {
			if value, ok := os.LookupEnv(key); ok {
				setFieldFromEnv(v.Field(i), value)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(v.Field(i))
		}
	}
}

func setFieldFromEnv(field reflect.Value, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Bool:
		switch strings.ToLower(value) {
		case "1", "true", "yes", "y":
			field.SetBool(true)
		default:
			field.SetBool(false)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
}
