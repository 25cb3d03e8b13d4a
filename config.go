// FILE: lixenwraith/optcfg/config.go
package optcfg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lixenwraith/optcfg/configpb"
)

// DefaultSection is the fallback section of INI sources. Its keys are visible
// in every other section.
const DefaultSection = "DEFAULT"

// ValidatorFunc defines the signature for a function that can validate a Config instance.
// It runs after all members validated successfully.
type ValidatorFunc func(c *Config) error

// Config is a named, ordered collection of options and nested configs. Each
// member is registered under its name, which is also its key in text sections
// and wire messages.
//
// A Config graph is not safe for concurrent use; callers serialize access.
type Config struct {
	name        string
	description string
	optional    bool
	options     []Option
	configs     []*Config
	members     map[string]bool
	validators  []ValidatorFunc
	logger      *slog.Logger
}

// ConfigSetting adjusts a Config declaration.
type ConfigSetting func(*Config)

// WithDescription sets the section description.
func WithDescription(description string) ConfigSetting {
	return func(c *Config) { c.description = description }
}

// AsOptional allows the section to be absent from text sources.
func AsOptional() ConfigSetting {
	return func(c *Config) { c.optional = true }
}

// WithLogger sets the logger for load diagnostics. Sub-configs without a
// logger inherit it when added.
func WithLogger(logger *slog.Logger) ConfigSetting {
	return func(c *Config) { c.logger = logger }
}

// WithValidator adds a validation function run by Validate after the members.
// Multiple validators are executed in the order they are added.
func WithValidator(fn ValidatorFunc) ConfigSetting {
	return func(c *Config) {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
	}
}

// New creates an empty Config. The name is the default section name.
func New(name string, settings ...ConfigSetting) *Config {
	c := &Config{
		name:    name,
		members: make(map[string]bool),
	}
	for _, fn := range settings {
		if fn != nil {
			fn(c)
		}
	}
	return c
}

func (c *Config) Name() string        { return c.name }
func (c *Config) Description() string { return c.description }
func (c *Config) Optional() bool      { return c.optional }

// Add registers options. An option may not take the place of a member that is
// already registered; assign to its value instead.
func (c *Config) Add(options ...Option) error {
	for _, opt := range options {
		if opt == nil {
			return &ConstructionError{Name: c.name, Message: "nil option"}
		}
		if err := c.claim(opt.Name()); err != nil {
			return err
		}
		c.options = append(c.options, opt)
		if holder, ok := opt.(configHolder); ok {
			holder.attach(c)
			for _, sub := range holder.heldConfigs() {
				c.inherit(sub)
			}
		}
	}
	return nil
}

// AddConfig registers nested configs. Each one is loaded from the section
// named after it.
func (c *Config) AddConfig(configs ...*Config) error {
	for _, sub := range configs {
		if sub == nil || sub == c {
			return &ConstructionError{Name: c.name, Message: "invalid sub-config"}
		}
		if err := c.claim(sub.name); err != nil {
			return err
		}
		c.configs = append(c.configs, sub)
		c.inherit(sub)
	}
	return nil
}

// MustAdd is like Add but panics on error
func (c *Config) MustAdd(options ...Option) *Config {
	if err := c.Add(options...); err != nil {
		panic(fmt.Sprintf("config declaration failed: %v", err))
	}
	return c
}

func (c *Config) claim(name string) error {
	if !isValidKeySegment(name) {
		return &ConstructionError{Name: joinPath(c.name, name), Message: "invalid member name"}
	}
	if c.members[name] {
		return &UsageError{
			Path:    joinPath(c.name, name),
			Message: "cannot replace member, assign to its value instead",
		}
	}
	c.members[name] = true
	return nil
}

func (c *Config) inherit(sub *Config) {
	if sub.logger == nil && c.logger != nil {
		sub.logger = c.logger
		for _, nested := range sub.Configs() {
			sub.inherit(nested)
		}
	}
}

func (c *Config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

// Option returns the member option registered under name.
func (c *Config) Option(name string) (Option, bool) {
	for _, opt := range c.options {
		if opt.Name() == name {
			return opt, true
		}
	}
	return nil, false
}

// Sub returns the nested config registered under name, or held by a config
// option under that section name.
func (c *Config) Sub(name string) (*Config, bool) {
	for _, sub := range c.Configs() {
		if sub.name == name {
			return sub, true
		}
	}
	return nil, false
}

// Options returns the member options in registration order.
func (c *Config) Options() []Option {
	return append([]Option(nil), c.options...)
}

// Configs returns the nested configs: registered sub-configs followed by the
// configs held by config options and config list options.
func (c *Config) Configs() []*Config {
	result := append([]*Config(nil), c.configs...)
	for _, opt := range c.options {
		if holder, ok := opt.(configHolder); ok {
			result = append(result, holder.heldConfigs()...)
		}
	}
	return result
}

// Lookup resolves a dotted path such as "db.pool.size" relative to c.
func (c *Config) Lookup(path string) (Option, error) {
	segments := strings.Split(path, ".")
	current := c
	for _, segment := range segments[:len(segments)-1] {
		sub, ok := current.Sub(segment)
		if !ok {
			return nil, &UsageError{Path: path, Message: fmt.Sprintf("no section %q", segment)}
		}
		current = sub
	}
	opt, ok := current.Option(segments[len(segments)-1])
	if !ok {
		return nil, &UsageError{Path: path, Message: "no such option"}
	}
	return opt, nil
}

// SetValue assigns v to the option at path.
func (c *Config) SetValue(path string, v any) error {
	opt, err := c.Lookup(path)
	if err != nil {
		return err
	}
	if err := opt.SetAny(v); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
		}
		return err
	}
	return nil
}

// LoadConfig updates values from section of src; an empty section means the
// config name. Options are loaded first, then nested configs from their own
// sections. A failing option does not stop its siblings; the first error is
// returned.
func (c *Config) LoadConfig(src Source, section string) error {
	if section == "" {
		section = c.name
	}
	if !src.HasSection(section) {
		if c.optional {
			c.log().Debug("Optional section not present, skipped", "section", section)
			return nil
		}
		if section != DefaultSection {
			return &MissingSectionError{Path: c.name, Section: section}
		}
	}

	var first error
	record := func(err error) {
		if err != nil && first == nil {
			first = annotate(c.name, err)
		}
	}

	loaded := 0
	for _, opt := range c.options {
		text, found, err := src.Value(section, opt.Name())
		if err != nil {
			record(&ParseError{Path: opt.Name(), Err: err})
			continue
		}
		if !found {
			continue
		}
		if err := opt.LoadString(text); err != nil {
			c.log().Debug("Option value rejected", "section", section, "option", opt.Name(), "error", err)
			record(err)
			continue
		}
		loaded++
	}
	c.log().Debug("Section loaded", "section", section, "options", loaded)

	for _, sub := range c.Configs() {
		if sub.name == "" {
			continue
		}
		record(sub.LoadConfig(src, ""))
	}
	return first
}

// Validate checks every option and nested config, then runs the validators.
// The first failure is returned with the dotted path of the failing member.
func (c *Config) Validate() error {
	for _, opt := range c.options {
		if err := opt.Validate(); err != nil {
			return annotate(c.name, err)
		}
	}
	for _, sub := range c.configs {
		if err := sub.Validate(); err != nil {
			return annotate(c.name, err)
		}
	}
	for _, fn := range c.validators {
		if err := fn(c); err != nil {
			var pe pathError
			if errors.As(err, &pe) {
				return annotate(c.name, err)
			}
			return &ValidationError{Path: c.name, Message: err.Error()}
		}
	}
	return nil
}

// HasValue reports whether every required option, recursively, has a value.
func (c *Config) HasValue() bool {
	for _, opt := range c.options {
		if opt.Required() && !opt.HasValue() {
			return false
		}
	}
	for _, sub := range c.Configs() {
		if !sub.HasValue() {
			return false
		}
	}
	return true
}

// GetConfig renders the config as INI text. Unless plain is set, every option
// carries its documentation and options equal to their default are commented
// out. An optional config without a name renders nothing.
func (c *Config) GetConfig(plain bool) string {
	if c.optional && c.name == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("[" + c.name + "]\n")
	if !plain {
		sb.WriteString(";\n")
		for _, line := range splitLines(strings.TrimSpace(c.description)) {
			sb.WriteString("; " + line + "\n")
		}
	}
	for _, opt := range c.options {
		if !plain {
			sb.WriteString("\n")
		}
		sb.WriteString(opt.GetConfig(plain))
	}
	for _, sub := range c.Configs() {
		if text := sub.GetConfig(plain); text != "" {
			if !plain {
				sb.WriteString("\n")
			}
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// SaveProto serializes the config into a new message.
func (c *Config) SaveProto() (*configpb.ConfigMessage, error) {
	msg := configpb.NewConfigMessage()
	if err := c.SaveProtoTo(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SaveProtoTo serializes the config into msg. Nested configs are stored in
// msg.Configs under their names.
func (c *Config) SaveProtoTo(msg *configpb.ConfigMessage) error {
	for _, opt := range c.options {
		if err := opt.SaveProto(msg); err != nil {
			return annotate(c.name, err)
		}
	}
	for _, sub := range c.Configs() {
		if sub.name == "" {
			continue
		}
		if err := sub.SaveProtoTo(msg.Sub(sub.name)); err != nil {
			return annotate(c.name, err)
		}
	}
	return nil
}

// LoadProto updates values from msg. It walks members in the same order as
// LoadConfig and returns the first error.
func (c *Config) LoadProto(msg *configpb.ConfigMessage) error {
	if msg == nil {
		return nil
	}
	var first error
	for _, opt := range c.options {
		if err := opt.LoadProto(msg); err != nil && first == nil {
			first = annotate(c.name, err)
		}
	}
	for _, sub := range c.Configs() {
		nested, ok := msg.Configs[sub.name]
		if !ok || sub.name == "" {
			continue
		}
		if err := sub.LoadProto(nested); err != nil && first == nil {
			first = annotate(c.name, err)
		}
	}
	c.log().Debug("Message loaded", "config", c.name, "options", len(msg.Options), "configs", len(msg.Configs))
	return first
}

// Clear resets all members, recursively.
func (c *Config) Clear(toDefault bool) {
	for _, opt := range c.options {
		opt.Clear(toDefault)
	}
	for _, sub := range c.configs {
		sub.Clear(toDefault)
	}
}

// configHolder is implemented by options whose values are configs.
type configHolder interface {
	heldConfigs() []*Config
	attach(owner *Config)
}
