// FILE: lixenwraith/optcfg/convenience.go
package optcfg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick loads cfg with the standard precedence (CLI > Env > File > Default)
// and validates it. A missing file is not fatal and yields ErrConfigNotFound.
func Quick(cfg *Config, envPrefix, configFile string) error {
	b := &Builder{cfg: cfg, file: configFile, args: os.Args[1:]}
	if envPrefix != "" {
		b.WithEnvPrefix(envPrefix)
	}
	_, err := b.Build()
	return err
}

// MustQuick is like Quick but panics on error
func MustQuick(cfg *Config, envPrefix, configFile string) *Config {
	if err := Quick(cfg, envPrefix, configFile); err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// Debug returns a listing of all option paths with their current value and
// whether it is the default.
func (c *Config) Debug() string {
	lines := make(map[string]string)
	c.walkOptions("", func(path string, opt Option) {
		state := "set"
		switch {
		case !opt.HasValue():
			state = "unset"
		case opt.IsDefault():
			state = "default"
		}
		lines[path] = fmt.Sprintf("  %s = %s (%s)", path, opt.AsString(), state)
	})

	paths := make([]string, 0, len(lines))
	for p := range lines {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	for _, p := range paths {
		b.WriteString(lines[p] + "\n")
	}
	return b.String()
}

func (c *Config) walkOptions(prefix string, fn func(path string, opt Option)) {
	base := joinPath(prefix, c.name)
	for _, opt := range c.options {
		fn(joinPath(base, opt.Name()), opt)
	}
	for _, sub := range c.Configs() {
		if sub.name != "" {
			sub.walkOptions(base, fn)
		}
	}
}

// Dump writes the current values to w in TOML format, one table per section
func (c *Config) Dump(w io.Writer) error {
	doc := make(map[string]any)
	collectSections(doc, c)
	return toml.NewEncoder(w).Encode(doc)
}
