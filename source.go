// FILE: lixenwraith/optcfg/source.go
package optcfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Source is a materialized text configuration: named sections of key/value
// strings. Keys are case-insensitive.
type Source interface {
	HasSection(section string) bool
	// Value returns the text for key in section. found is false when the key
	// is absent; err reports a value that exists but cannot be produced.
	Value(section, key string) (text string, found bool, err error)
}

// maxInterpolationDepth bounds nested ${...} references.
const maxInterpolationDepth = 10

// INISource holds sections parsed from INI text. Values may refer to other
// values with ${key}, ${section:key} and ${env:VARIABLE}; "$$" is a literal
// dollar sign. Keys of the DEFAULT section are visible in every section.
type INISource struct {
	sections  map[string]map[string]string
	order     []string
	lookupEnv func(string) (string, bool)
}

// ParseINI reads INI text from r.
func ParseINI(r io.Reader) (*INISource, error) {
	src := &INISource{
		sections:  map[string]map[string]string{DefaultSection: {}},
		lookupEnv: os.LookupEnv,
	}

	var (
		section  map[string]string
		sectName string
		optName  string
		value    []string
		indent   = -1
		lineNo   int
	)
	flush := func() {
		if section != nil && optName != "" {
			section[optName] = strings.TrimRight(strings.Join(value, "\n"), " \t\n")
		}
		optName = ""
		value = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		// Full-line comments never end a multi-line value
		if strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			if optName != "" {
				value = append(value, "")
			}
			continue
		}

		lineIndent := len(line) - len(strings.TrimLeft(line, " \t"))
		if optName != "" && lineIndent > indent {
			value = append(value, trimmed)
			continue
		}

		flush()
		indent = lineIndent

		if strings.HasPrefix(trimmed, "[") {
			end := strings.LastIndex(trimmed, "]")
			if end < 2 {
				return nil, fmt.Errorf("line %d: malformed section header %q", lineNo, trimmed)
			}
			sectName = trimmed[1:end]
			if _, exists := src.sections[sectName]; exists && sectName != DefaultSection {
				return nil, fmt.Errorf("line %d: section %q already exists", lineNo, sectName)
			}
			if sectName != DefaultSection {
				src.sections[sectName] = make(map[string]string)
				src.order = append(src.order, sectName)
			}
			section = src.sections[sectName]
			continue
		}

		if section == nil {
			return nil, fmt.Errorf("line %d: key outside of any section", lineNo)
		}
		delim := strings.IndexAny(trimmed, "=:")
		if delim <= 0 {
			return nil, fmt.Errorf("line %d: expected key = value, got %q", lineNo, trimmed)
		}
		key := strings.ToLower(strings.TrimSpace(trimmed[:delim]))
		if _, exists := section[key]; exists {
			return nil, fmt.Errorf("line %d: option %q in section %q already exists", lineNo, key, sectName)
		}
		optName = key
		value = []string{strings.TrimSpace(trimmed[delim+1:])}
		section[key] = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read INI data: %w", err)
	}
	flush()
	return src, nil
}

// ParseINIString parses INI text held in s.
func ParseINIString(s string) (*INISource, error) {
	return ParseINI(strings.NewReader(s))
}

// HasSection reports whether section was declared. The DEFAULT section is
// never reported as present.
func (s *INISource) HasSection(section string) bool {
	if section == DefaultSection {
		return false
	}
	_, ok := s.sections[section]
	return ok
}

// Sections returns the declared sections in file order, without DEFAULT.
func (s *INISource) Sections() []string {
	return append([]string(nil), s.order...)
}

// Keys returns the keys of section, including inherited DEFAULT keys, sorted.
func (s *INISource) Keys(section string) []string {
	seen := make(map[string]bool)
	for k := range s.sections[section] {
		seen[k] = true
	}
	for k := range s.sections[DefaultSection] {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the uninterpolated value.
func (s *INISource) Raw(section, key string) (string, bool) {
	key = strings.ToLower(key)
	if sect, ok := s.sections[section]; ok {
		if v, ok := sect[key]; ok {
			return v, true
		}
	}
	v, ok := s.sections[DefaultSection][key]
	return v, ok
}

func (s *INISource) Value(section, key string) (string, bool, error) {
	raw, ok := s.Raw(section, key)
	if !ok {
		return "", false, nil
	}
	text, err := s.interpolate(section, key, raw, 1)
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}

func (s *INISource) interpolate(section, key, raw string, depth int) (string, error) {
	if depth > maxInterpolationDepth {
		return "", fmt.Errorf("interpolation depth exceeded in %s:%s", section, key)
	}
	if !strings.Contains(raw, "$") {
		return raw, nil
	}

	var sb strings.Builder
	rest := raw
	for {
		idx := strings.IndexByte(rest, '$')
		if idx < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:idx])
		rest = rest[idx:]

		switch {
		case strings.HasPrefix(rest, "$$"):
			sb.WriteByte('$')
			rest = rest[2:]
		case strings.HasPrefix(rest, "${"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return "", fmt.Errorf("bad interpolation variable reference %q", rest)
			}
			ref := rest[2:end]
			rest = rest[end+1:]

			refSection, refKey := section, ref
			if sect, k, ok := strings.Cut(ref, ":"); ok {
				refSection, refKey = sect, k
			}
			if refSection == "env" {
				v, _ := s.lookupEnv(strings.ToUpper(refKey))
				sb.WriteString(v)
				continue
			}
			v, ok := s.Raw(refSection, refKey)
			if !ok {
				return "", fmt.Errorf("bad value substitution: option %q in section %q not found", refKey, refSection)
			}
			expanded, err := s.interpolate(refSection, refKey, v, depth+1)
			if err != nil {
				return "", err
			}
			sb.WriteString(expanded)
		default:
			return "", fmt.Errorf("'$' must be followed by '$' or '{', found: %q", rest)
		}
	}
	return sb.String(), nil
}

// MapSource holds sections given as plain maps.
type MapSource struct {
	sections map[string]map[string]string
}

// NewMapSource builds a source from sections. Keys are lower-cased.
func NewMapSource(sections map[string]map[string]string) *MapSource {
	m := &MapSource{sections: make(map[string]map[string]string, len(sections))}
	for name, values := range sections {
		sect := make(map[string]string, len(values))
		for k, v := range values {
			sect[strings.ToLower(k)] = v
		}
		m.sections[name] = sect
	}
	return m
}

func (m *MapSource) HasSection(section string) bool {
	if section == DefaultSection {
		return false
	}
	_, ok := m.sections[section]
	return ok
}

func (m *MapSource) Value(section, key string) (string, bool, error) {
	key = strings.ToLower(key)
	if v, ok := m.sections[section][key]; ok {
		return v, true, nil
	}
	v, ok := m.sections[DefaultSection][key]
	return v, ok, nil
}

// Sections returns the section names, sorted.
func (m *MapSource) Sections() []string {
	names := make([]string, 0, len(m.sections))
	for name := range m.sections {
		if name != DefaultSection {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// layered resolves values from several sources in precedence order.
type layered []Source

// Layered combines sources. The first source holding a key wins; a section is
// present when any source has it.
func Layered(sources ...Source) Source {
	var l layered
	for _, s := range sources {
		if s != nil {
			l = append(l, s)
		}
	}
	return l
}

func (l layered) HasSection(section string) bool {
	for _, s := range l {
		if s.HasSection(section) {
			return true
		}
	}
	return false
}

func (l layered) Value(section, key string) (string, bool, error) {
	for _, s := range l {
		text, found, err := s.Value(section, key)
		if err != nil || found {
			return text, found, err
		}
	}
	return "", false, nil
}
