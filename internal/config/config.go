// Package config loads bibparse settings from defaults, a YAML file,
// BIBPARSE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/drgo/bibparse"
	"github.com/drgo/bibparse/internal/render"
)

// EnvPrefix marks environment variables read as configuration. A double
// underscore separates nested keys: BIBPARSE_SERVER__ADDR is server.addr.
const EnvPrefix = "BIBPARSE_"

// DefaultFiles are tried in order when no config file is named.
var DefaultFiles = []string{"bibparse.yaml", "bibparse.yml"}

const (
	DefaultTimeout = 30 * time.Second
	DefaultAddr    = "localhost:8080"
)

// Config holds all settings.
type Config struct {
	Sources  []string          `koanf:"sources"`
	Format   string            `koanf:"format"`
	Output   string            `koanf:"output"`
	Template string            `koanf:"template"`
	Title    string            `koanf:"title"`
	Timeout  time.Duration     `koanf:"timeout"`
	Verbose  bool              `koanf:"verbose"`
	Watch    bool              `koanf:"watch"`
	Macros   map[string]string `koanf:"macros"`
	Dedup    DedupConfig       `koanf:"dedup"`
	Server   ServerConfig      `koanf:"server"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

type DedupConfig struct {
	Fields []string `koanf:"fields"`
	Action string   `koanf:"action"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"timeout":      DefaultTimeout.String(),
		"verbose":      false,
		"watch":        false,
		"dedup.fields": []string{"year", "title"},
		"dedup.action": "none",
		"server.addr":  DefaultAddr,
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"config": "",
	"macro":  "macros",
	"fields": "dedup.fields",
	"action": "dedup.action",
	"addr":   "server.addr",
}

// Load reads configuration with precedence flags > env > file > defaults.
// cfgFile names the file to read; when empty the DefaultFiles in the working
// directory are tried. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if key == "macros" {
				m, _ := flags.GetStringToString(f.Name)
				macros := make(map[string]any, len(m))
				for name, v := range m {
					macros[name] = v
				}
				return key, macros
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks values that Load cannot type-check.
func (c *Config) Validate() error {
	if c.Format != "" {
		if _, err := render.New(c.Format, render.Options{}); err != nil {
			return err
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, err := bibparse.ParseSetAction(c.Dedup.Action); err != nil {
		return err
	}
	return nil
}

// ParseMacros returns the configured extra seed macros.
func (c *Config) ParseMacros() bibparse.Macros {
	m := make(bibparse.Macros, len(c.Macros))
	for name, v := range c.Macros {
		m.Set(name, v)
	}
	return m
}
