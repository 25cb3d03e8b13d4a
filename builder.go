// FILE: lixenwraith/optcfg/builder.go
package optcfg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Builder provides a fluent interface for declaring a configuration and
// loading it from layered sources. Precedence is command-line arguments, then
// environment variables, then extra sources, then the configuration file;
// values missing everywhere keep their defaults.
type Builder struct {
	cfg       *Config
	file      string
	envPrefix string
	transform EnvTransformFunc
	useEnv    bool
	args      []string
	sources   []Source
	logger    *slog.Logger
	err       error
}

// NewBuilder creates a new configuration builder for a root config named name
func NewBuilder(name string, settings ...ConfigSetting) *Builder {
	return &Builder{
		cfg:  New(name, settings...),
		args: os.Args[1:],
	}
}

// WithOptions registers options on the root config
func (b *Builder) WithOptions(options ...Option) *Builder {
	if b.err == nil {
		b.err = b.cfg.Add(options...)
	}
	return b
}

// WithConfigs registers nested configs on the root config
func (b *Builder) WithConfigs(configs ...*Config) *Builder {
	if b.err == nil {
		b.err = b.cfg.AddConfig(configs...)
	}
	return b
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithEnvPrefix enables environment variables named PREFIX + SECTION_KEY
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	b.useEnv = true
	return b
}

// WithEnvTransform customizes how section.key paths map to environment variables
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.transform = fn
	b.useEnv = true
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources adds sources ranking between environment variables and the file
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.sources = append(b.sources, sources...)
	return b
}

// WithValidator adds a validation function that runs after the members validated
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	WithValidator(fn)(b.cfg)
	return b
}

// WithLogger sets the logger of the root config
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithFileDiscovery locates the configuration file when none was set
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if b.file != "" {
		return b
	}
	if path, ok := FindConfigFile(opts, b.args); ok {
		b.file = path
	}
	return b
}

// Build loads and validates the configuration. A missing file is reported as
// ErrConfigNotFound together with the usable config.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		WithLogger(b.logger)(b.cfg)
		for _, sub := range b.cfg.Configs() {
			b.cfg.inherit(sub)
		}
	}

	var layers []Source
	if len(b.args) > 0 {
		args, err := NewArgsSource(b.args)
		if err != nil {
			return nil, err
		}
		layers = append(layers, args)
	}
	if b.useEnv {
		layers = append(layers, NewEnvSource(b.envPrefix, b.transform))
	}
	layers = append(layers, b.sources...)

	var loadErr error
	if b.file != "" {
		file, err := ReadSource(b.file)
		switch {
		case errors.Is(err, ErrConfigNotFound):
			b.cfg.log().Debug("Configuration file not found, using defaults", "path", b.file)
			loadErr = err
		case err != nil:
			return nil, err
		default:
			layers = append(layers, file)
		}
	}

	// Sections absent from every layer keep their defaults; Validate reports
	// required options left without a value.
	layers = append(layers, defaultsSource{})
	if err := b.cfg.LoadConfig(Layered(layers...), ""); err != nil {
		return nil, err
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// ErrConfigNotFound or nil
	return b.cfg, loadErr
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil {
		// Ignore ErrConfigNotFound as it is not a fatal error for MustBuild.
		// The application can proceed with defaults/env vars.
		if !errors.Is(err, ErrConfigNotFound) {
			panic(fmt.Sprintf("config build failed: %v", err))
		}
	}
	return cfg
}

// BuildAndScan builds the configuration and decodes the values below
// basePath into target
func (b *Builder) BuildAndScan(basePath string, target any) error {
	cfg, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}

	if err := cfg.Scan(basePath, target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}

	// ErrConfigNotFound or nil
	return err
}

// defaultsSource has every section and no values.
type defaultsSource struct{}

func (defaultsSource) HasSection(string) bool { return true }

func (defaultsSource) Value(string, string) (string, bool, error) { return "", false, nil }
