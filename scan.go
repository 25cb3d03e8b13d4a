// FILE: lixenwraith/optcfg/scan.go
package optcfg

import (
	"fmt"
	"strings"
)

// Snapshot returns the current values as a nested map: options by name,
// nested configs as maps under their names. Unset options are omitted.
func (c *Config) Snapshot() map[string]any {
	nested := make(map[string]any)
	for _, opt := range c.options {
		if opt.HasValue() {
			setNestedValue(nested, opt.Name(), opt.ValueAny())
		}
	}
	for _, sub := range c.Configs() {
		if sub.name != "" {
			nested[sub.name] = sub.Snapshot()
		}
	}
	return nested
}

// Scan decodes the values below basePath into target, a pointer to a struct
// or map. Struct fields are matched by their `config` tag, or by name.
// An empty basePath scans the whole config.
func (c *Config) Scan(basePath string, target any) error {
	sectionData := navigateToPath(c.Snapshot(), basePath)
	if sectionData == nil {
		return &UsageError{Path: joinPath(c.name, strings.Trim(basePath, ".")), Message: "path not found"}
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return &UsageError{
			Path:    joinPath(c.name, basePath),
			Message: fmt.Sprintf("path does not refer to a section (type %T)", sectionData),
		}
	}

	if err := decodeMap(sectionMap, target, DefaultCodecs); err != nil {
		return fmt.Errorf("failed to scan %q: %w", basePath, err)
	}
	return nil
}
