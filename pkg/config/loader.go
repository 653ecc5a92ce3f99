package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/dedup/pkg/errors"
)

// FileConfig holds the defaults a config file (or environment) may supply.
// Flags set on the command line always win over these.
type FileConfig struct {
	Action     string   `koanf:"action" toml:"action" yaml:"action"`
	MoveTo     string   `koanf:"move_to" toml:"move_to" yaml:"move_to"`
	MinSize    int64    `koanf:"min_size" toml:"min_size" yaml:"min_size"`
	MaxSize    int64    `koanf:"max_size" toml:"max_size" yaml:"max_size"`
	IncludeExt []string `koanf:"include_ext" toml:"include_ext" yaml:"include_ext"`
	ExcludeExt []string `koanf:"exclude_ext" toml:"exclude_ext" yaml:"exclude_ext"`
	Threads    int      `koanf:"threads" toml:"threads" yaml:"threads"`
	DryRun     bool     `koanf:"dry_run" toml:"dry_run" yaml:"dry_run"`
}

// DefaultFileConfig returns the built-in defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{Action: "list"}
}

// Load reads configuration defaults: built-ins, then an optional config
// file, then DEDUP_* environment variables. When explicitPath is empty the
// loader looks for dedup.toml or dedup.yaml in the working directory.
func Load(explicitPath string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	k := koanf.New(".")

	path := explicitPath
	if path == "" {
		for _, candidate := range []string{"dedup.toml", "dedup.yaml", "dedup.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return cfg, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return cfg, errors.Wrapf(err, errors.ErrConfigInvalid, "failed to load config from %s", path)
		}
	}

	// DEDUP_MIN_SIZE=1024 → min_size, etc.
	err := k.Load(env.Provider("DEDUP_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DEDUP_"))
	}), nil)
	if err != nil {
		return cfg, errors.Wrap(err, errors.ErrConfigInvalid, "failed to load environment config")
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, errors.Wrap(err, errors.ErrConfigInvalid, "failed to parse config")
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errors.Newf(errors.ErrConfigInvalid,
			"unsupported config format %q (use .toml or .yaml)", filepath.Ext(path))
	}
}
