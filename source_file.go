// FILE: lixenwraith/optcfg/source_file.go
package optcfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MaxFileSize limits configuration files read by ReadSource.
const MaxFileSize = 10 << 20

// Supported file formats.
const (
	FormatINI  = "ini"
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReadSource reads a configuration file. INI files keep their sections;
// TOML, JSON and YAML documents are mapped to sections: top-level tables
// become sections, nested tables become "parent.child" sections and top-level
// scalars land in DEFAULT. A missing file yields ErrConfigNotFound.
func ReadSource(path string) (Source, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if fileInfo.Size() > MaxFileSize {
		return nil, fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, MaxFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(fileData)
	}
	return parseSource(fileData, format, path)
}

func parseSource(data []byte, format, path string) (Source, error) {
	if format == FormatINI {
		src, err := ParseINI(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse INI config file '%s': %w", path, err)
		}
		return src, nil
	}

	fileConfig := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file '%s': %w", path, err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file '%s': %w", path, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine config format for file '%s'", path)
	}
	return NewMapSource(sectionsFromMap(fileConfig)), nil
}

// sectionsFromMap maps a decoded document to sections.
func sectionsFromMap(doc map[string]any) map[string]map[string]string {
	sections := make(map[string]map[string]string)
	var walk func(name string, table map[string]any)
	walk = func(name string, table map[string]any) {
		sect := sections[name]
		if sect == nil {
			sect = make(map[string]string)
			sections[name] = sect
		}
		for key, value := range table {
			if nested, ok := value.(map[string]any); ok {
				if name == DefaultSection {
					walk(key, nested)
				} else {
					walk(name+"."+key, nested)
				}
				continue
			}
			sect[key] = scalarText(value)
		}
	}
	walk(DefaultSection, doc)
	return sections
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg":
		return FormatINI
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		// .conf and friends are detected from content
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing. INI is the
// fallback for text no structured parser accepts.
func detectFormatFromContent(data []byte) string {
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil && len(yamlTest) > 0 {
		return FormatYAML
	}

	return FormatINI
}

// WriteConfigFile writes the configs as INI text, documented unless plain is
// set. The file is replaced atomically.
func WriteConfigFile(path string, plain bool, configs ...*Config) error {
	var sb strings.Builder
	for _, cfg := range configs {
		text := cfg.GetConfig(plain)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return atomicWriteFile(path, []byte(sb.String()))
}

// ExportFile writes the current values of the configs in the format given by
// the file extension. Each config, nested ones included, becomes a top-level
// table named after its section. Unset options are omitted.
func ExportFile(path string, configs ...*Config) error {
	format := detectFileFormat(path)
	if format == FormatINI || format == "" {
		return WriteConfigFile(path, true, configs...)
	}

	doc := make(map[string]any)
	for _, cfg := range configs {
		collectSections(doc, cfg)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(doc)
		data = buf.Bytes()
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config data to %s: %w", format, err)
	}
	return atomicWriteFile(path, data)
}

func collectSections(doc map[string]any, cfg *Config) {
	if cfg.name == "" {
		return
	}
	values := make(map[string]any)
	for _, opt := range cfg.options {
		if v, ok := exportValue(opt); ok {
			values[opt.Name()] = v
		}
	}
	doc[cfg.name] = values
	for _, sub := range cfg.Configs() {
		collectSections(doc, sub)
	}
}

// exportValue returns a value native to structured formats, falling back to
// the option text. String lists become arrays only with the automatic
// separator, since arrays read back as newline separated items.
func exportValue(opt Option) (any, bool) {
	if !opt.HasValue() {
		return nil, false
	}
	switch v := opt.ValueAny().(type) {
	case string, bool, int64, float64:
		return v, true
	case []string:
		if sep, ok := opt.(interface{ Separator() string }); !ok || sep.Separator() == "" {
			return v, true
		}
	}
	return opt.AsString(), true
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
