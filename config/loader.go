package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
)

// Files searched in the working directory when no explicit path is given.
var (
	DefaultConfigFiles = []string{"config.yml", "config/config.yml"}
	DefaultEnvFiles    = []string{".env"}
)

// LoaderConfig holds the optional file overrides and flag bindings.
type LoaderConfig struct {
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Flags      *pflag.FlagSet
	FlagKeys   map[string]string // flag name -> config key
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlags overrides config keys with command-line flags the user set.
// keys maps a flag name to the dotted config key it controls. Flags left at
// their default do not override file or environment values.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// Load reads the readflow configuration, applies defaults and validates it.
func Load(serviceName string, opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{Name: serviceName}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig unmarshals configuration into cfg. Sources are layered in
// order: the YAML file, the environment (after loading the .env file),
// then flags the user set. A missing file is skipped.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = firstExisting(DefaultConfigFiles)
	}
	envFile := lc.EnvFile
	if envFile == "" {
		envFile = firstExisting(DefaultEnvFiles)
	}

	v := viper.New()
	if configFile != "" && exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig("config_file", "failed to read "+configFile).WithCause(err)
		}
	}

	if envFile != "" && exists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warn("failed to load env file", logger.Fields("path", envFile, "error", err.Error()))
		}
	}
	v.AutomaticEnv()
	bindEnv(v, os.Environ())

	if lc.Flags != nil {
		bindFlags(v, lc.Flags, lc.FlagKeys)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidConfig(serviceName, "failed to unmarshal config").WithCause(err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if exists(p) {
			return p
		}
	}
	return ""
}

// bindFlags runs after env binding so explicit flags win over both the file
// and the environment.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := keys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

// bindEnv sets every KEY=value pair under each nested key it could name.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants lists the config keys an environment variable may target,
// since underscores separate both nesting levels and words:
//
//	MONITOR_ADDR -> [monitor_addr, monitor.addr]
//	PIPELINE_QUEUE_CAPACITY -> [pipeline_queue_capacity, pipeline.queue.capacity,
//	  pipeline.queue_capacity]
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	variants := []string{lower}
	seen := map[string]bool{lower: true}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			variants = append(variants, k)
		}
	}
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return variants
}
