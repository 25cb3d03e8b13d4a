// FILE: lixenwraith/optcfg/builder_test.go
package optcfg

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newServiceBuilder() *Builder {
	return NewBuilder("service").
		WithOptions(
			Must(NewStringOption("name", "Service name", Default("svc"))),
			Must(NewIntOption("port", "Listen port", Default(8080))),
		).
		WithConfigs(newDBConfig()).
		WithArgs(nil)
}

// TestBuilderPrecedence tests the layering of args, environment and file
func TestBuilderPrecedence(t *testing.T) {
	path := writeFile(t, "service.ini", "[service]\nport = 1\nname = from-file\n[db]\nhost = file.local\nport = 10\n")
	t.Setenv("BLDTEST_SERVICE_PORT", "2")
	t.Setenv("BLDTEST_DB_HOST", "env.local")

	cfg, err := newServiceBuilder().
		WithFile(path).
		WithEnvPrefix("BLDTEST_").
		WithArgs([]string{"--db.port=30"}).
		Build()
	require.NoError(t, err)

	name, _ := cfg.String("name")
	assert.Equal(t, "from-file", name)
	port, _ := cfg.Int64("port")
	assert.Equal(t, int64(2), port, "environment beats file")
	host, _ := cfg.String("db.host")
	assert.Equal(t, "env.local", host)
	dbPort, _ := cfg.Int64("db.port")
	assert.Equal(t, int64(30), dbPort, "args beat everything")
}

// TestBuilderSources tests extra sources and section-less configurations
func TestBuilderSources(t *testing.T) {
	t.Run("ExtraSourceBelowEnv", func(t *testing.T) {
		t.Setenv("BLDSRC_DB_HOST", "env.local")
		extra := NewMapSource(map[string]map[string]string{
			"db": {"host": "extra.local", "port": "11"},
		})
		cfg, err := newServiceBuilder().WithEnvPrefix("BLDSRC_").WithSources(extra).Build()
		require.NoError(t, err)

		host, _ := cfg.String("db.host")
		assert.Equal(t, "env.local", host)
		port, _ := cfg.Int64("db.port")
		assert.Equal(t, int64(11), port)
	})

	t.Run("CustomEnvTransform", func(t *testing.T) {
		t.Setenv("CUSTOM_HOST", "custom.local")
		cfg, err := newServiceBuilder().
			WithEnvTransform(func(path string) string {
				if path == "db.host" {
					return "CUSTOM_HOST"
				}
				return ""
			}).
			Build()
		require.NoError(t, err)
		host, _ := cfg.String("db.host")
		assert.Equal(t, "custom.local", host)
	})

	t.Run("AbsentSectionsKeepDefaults", func(t *testing.T) {
		cfg, err := newServiceBuilder().WithArgs([]string{"--db.host=h"}).Build()
		require.NoError(t, err)
		port, _ := cfg.Int64("port")
		assert.Equal(t, int64(8080), port)
	})
}

// TestBuilderErrors tests failures reported by Build
func TestBuilderErrors(t *testing.T) {
	t.Run("MissingFileIsNotFatal", func(t *testing.T) {
		cfg, err := newServiceBuilder().
			WithFile(filepath.Join(t.TempDir(), "absent.ini")).
			WithArgs([]string{"--db.host=h"}).
			Build()
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, cfg)
		name, _ := cfg.String("name")
		assert.Equal(t, "svc", name)
	})

	t.Run("RequiredMissing", func(t *testing.T) {
		cfg, err := newServiceBuilder().Build()
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "configuration validation failed")

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "service.db.host", ve.Path)
	})

	t.Run("ParseFailure", func(t *testing.T) {
		_, err := newServiceBuilder().WithArgs([]string{"--db.host=h", "--db.port=many"}).Build()
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := writeFile(t, "broken.ini", "[service]\n[service]\n")
		_, err := newServiceBuilder().WithFile(path).Build()
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("Validator", func(t *testing.T) {
		_, err := newServiceBuilder().
			WithArgs([]string{"--db.host=h", "--service.port=80"}).
			WithValidator(func(c *Config) error {
				if port, _ := c.Int64("port"); port < 1024 {
					return errors.New("privileged port")
				}
				return nil
			}).
			Build()
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "privileged port")
	})

	t.Run("DeclarationError", func(t *testing.T) {
		_, err := newServiceBuilder().
			WithOptions(Must(NewStringOption("name", ""))).
			Build()
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("MustBuild", func(t *testing.T) {
		assert.Panics(t, func() { newServiceBuilder().MustBuild() })

		cfg := newServiceBuilder().
			WithFile(filepath.Join(t.TempDir(), "absent.ini")).
			WithArgs([]string{"--db.host=h"}).
			MustBuild()
		assert.NotNil(t, cfg)
	})
}

// TestBuildAndScan tests building straight into a struct
func TestBuildAndScan(t *testing.T) {
	var db struct {
		Host string `config:"host"`
		Port int64  `config:"port"`
	}
	err := newServiceBuilder().
		WithArgs([]string{"--db.host=db.local"}).
		BuildAndScan("db", &db)
	require.NoError(t, err)
	assert.Equal(t, "db.local", db.Host)
	assert.Equal(t, int64(5432), db.Port)

	err = newServiceBuilder().
		WithArgs([]string{"--db.host=db.local"}).
		BuildAndScan("cache", &db)
	assert.ErrorIs(t, err, ErrUsage)
}

// TestBuilderFileDiscovery tests locating the file through discovery options
func TestBuilderFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.ini"), []byte("[db]\nhost = found.local\n"), 0644))

	opts := FileDiscoveryOptions{Name: "svc", Extensions: []string{".toml", ".ini"}, Paths: []string{dir}}
	cfg, err := newServiceBuilder().WithFileDiscovery(opts).Build()
	require.NoError(t, err)
	host, _ := cfg.String("db.host")
	assert.Equal(t, "found.local", host)

	t.Run("ExplicitFileWins", func(t *testing.T) {
		explicit := writeFile(t, "explicit.ini", "[db]\nhost = explicit.local\n")
		cfg, err := newServiceBuilder().WithFile(explicit).WithFileDiscovery(opts).Build()
		require.NoError(t, err)
		host, _ := cfg.String("db.host")
		assert.Equal(t, "explicit.local", host)
	})
}

// TestBuilderLogger tests diagnostics emitted while loading
func TestBuilderLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := newServiceBuilder().
		WithFile(filepath.Join(t.TempDir(), "absent.ini")).
		WithArgs([]string{"--db.host=h"}).
		WithLogger(logger).
		Build()
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Contains(t, buf.String(), "Configuration file not found")
	assert.Contains(t, buf.String(), "section=db")
}

// TestQuick tests the one-call loader
func TestQuick(t *testing.T) {
	path := writeFile(t, "quick.ini", "[db]\nhost = quick.local\n")

	cfg := newDBConfig()
	require.NoError(t, Quick(cfg, "", path))
	host, _ := cfg.String("host")
	assert.Equal(t, "quick.local", host)

	missing := New("cache").MustAdd(Must(NewIntOption("size", "", Default(1))))
	err := Quick(missing, "", filepath.Join(t.TempDir(), "absent.ini"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Same(t, missing, MustQuick(missing, "", filepath.Join(t.TempDir(), "absent.ini")))

	assert.Panics(t, func() { MustQuick(newDBConfig(), "", filepath.Join(t.TempDir(), "absent.ini")) })
}
