// FILE: lixenwraith/optcfg/source_env.go
package optcfg

import (
	"fmt"
	"os"
	"strings"
)

// EnvTransformFunc converts a "section.key" path to an environment variable name.
type EnvTransformFunc func(path string) string

// defaultEnvTransform creates the default environment variable transformer:
// dots become underscores, the result is upper-cased and prefixed.
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// EnvSource reads values from a snapshot of the process environment. The
// value of key in section comes from PREFIX + SECTION_KEY.
type EnvSource struct {
	transform EnvTransformFunc
	env       map[string]string
}

// NewEnvSource snapshots the environment variables starting with prefix.
// A nil transform selects the default mapping.
func NewEnvSource(prefix string, transform EnvTransformFunc) *EnvSource {
	if transform == nil {
		transform = defaultEnvTransform(prefix)
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, prefix) {
			env[name] = value
		}
	}
	return &EnvSource{transform: transform, env: env}
}

// HasSection reports whether any variable carries the section prefix.
func (e *EnvSource) HasSection(section string) bool {
	if section == DefaultSection {
		return false
	}
	marker := e.transform(section + ".")
	for name := range e.env {
		if strings.HasPrefix(name, marker) {
			return true
		}
	}
	return false
}

func (e *EnvSource) Value(section, key string) (string, bool, error) {
	v, ok := e.env[e.transform(section+"."+key)]
	return v, ok, nil
}

// Variable returns the environment variable name for an option path.
func (e *EnvSource) Variable(section, key string) string {
	return e.transform(section + "." + key)
}

// ArgsSource holds "--section.key value" command-line arguments. A key given
// without a section belongs to DEFAULT.
type ArgsSource struct {
	*MapSource
}

// NewArgsSource parses args. Accepted forms are --section.key=value,
// --section.key value and a bare --section.flag meaning "yes".
func NewArgsSource(args []string) (*ArgsSource, error) {
	parsed, err := parseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	sections := make(map[string]map[string]string)
	for path, value := range flattenMap(parsed, "") {
		section, key := splitKeyPath(path)
		if sections[section] == nil {
			sections[section] = make(map[string]string)
		}
		sections[section][key] = scalarText(value)
	}
	return &ArgsSource{NewMapSource(sections)}, nil
}

// parseArgs processes command-line arguments into a nested map structure.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			i++
			continue
		}

		var keyPath, valueStr string
		if k, v, ok := strings.Cut(argContent, "="); ok {
			keyPath, valueStr = k, v
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "yes"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}

		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}

		setNestedValue(result, keyPath, valueStr)
	}

	return result, nil
}
