package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MZSDRF_"

// Config holds every setting of a run.
type Config struct {
	SDRF       string   `koanf:"sdrf"`
	Input      string   `koanf:"input"`
	Output     string   `koanf:"output"`
	Target     string   `koanf:"target"`
	Rules      string   `koanf:"rules"`
	Identity   []string `koanf:"identity"`
	Names      []string `koanf:"names"`
	Delimiter  string   `koanf:"delimiter"`
	AllowEmpty bool     `koanf:"allow_empty"`
	Report     string   `koanf:"report"`
	Debug      bool     `koanf:"debug"`
}

// LoadConfig merges, from lowest to highest precedence: defaults, the YAML
// file cfgFile (if any), MZSDRF_* environment variables and flags that were
// set on the command line.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"input":     "-",
		"output":    "-",
		"delimiter": "tab",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// MZSDRF_ALLOW_EMPTY -> allow_empty
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Identity = splitList(cfg.Identity)
	cfg.Names = splitList(cfg.Names)
	cfg.Delimiter = strings.ToLower(strings.TrimSpace(cfg.Delimiter))

	return &cfg, cfg.Validate()
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.SDRF == "" {
		return fmt.Errorf("an SDRF file is required (--sdrf or %sSDRF)", envPrefix)
	}

	if c.SDRF == "-" && c.Input == "-" {
		return fmt.Errorf("the SDRF and the mzML input cannot both be read from stdin")
	}

	switch c.Delimiter {
	case "tab", "comma", "auto":
	default:
		return fmt.Errorf("delimiter must be tab, comma or auto, not %q", c.Delimiter)
	}

	return nil
}

// splitList accepts both repeated values and comma-separated ones, as
// environment variables can only carry the latter.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
