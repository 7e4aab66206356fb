package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > anexocon.yaml > anexocon.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("anexocon.yaml"); err == nil {
		return "anexocon.yaml"
	}
	if _, err := os.Stat("anexocon.yml"); err == nil {
		return "anexocon.yml"
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// Load loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config
// file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"remote_root": "/",
		"work_dir":    DefaultWorkDir,
		"output_dir":  DefaultOutputDir,
		"state_path":  DefaultStateFile,
		"workers":     DefaultWorkers,
		"verbose":     false,
		"sftp.port":   DefaultSFTPPort,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (ANEXOCON_ prefix)
	// Transform: ANEXOCON_SFTP_HOST -> sftp.host
	if err := k.Load(env.Provider("ANEXOCON_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "ANEXOCON_"))
		if strings.HasPrefix(key, "sftp_") {
			return "sftp." + strings.TrimPrefix(key, "sftp_")
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --registry for brevity; the config key is
			// registry_path
			if key == "registry" {
				return "registry_path", posflag.FlagVal(flags, f)
			}
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			if key == "output" {
				return "output_dir", posflag.FlagVal(flags, f)
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

	// Credentials commonly arrive as ${VAR} references.
	cfg.SFTP.Host = expandEnvVars(cfg.SFTP.Host)
	cfg.SFTP.User = expandEnvVars(cfg.SFTP.User)
	cfg.SFTP.Password = expandEnvVars(cfg.SFTP.Password)
	cfg.RegistryPath = expandEnvVars(cfg.RegistryPath)

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used,
// if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger,
// shared with the commands package without an import cycle.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns with environment variable
// values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
