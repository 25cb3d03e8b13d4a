// FILE: lixenwraith/optcfg/options_config.go
package optcfg

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lixenwraith/optcfg/configpb"
)

// ConfigOption embeds a Config whose section name is the option value. The
// owning Config loads and saves the embedded config from that section.
type ConfigOption struct {
	*option[string]
	cfg *Config
}

// NewConfigOption declares an option holding cfg. Without a Default the
// current name of cfg is the default section name. The embedded config is
// optional unless the option is Required; a cfg declared AsOptional stays
// optional.
func NewConfigOption(name, description string, cfg *Config, settings ...OptionSetting) (*ConfigOption, error) {
	if cfg == nil {
		return nil, &ConstructionError{Name: name, Message: "config required"}
	}
	s := applySettings(settings)
	if !s.hasDefault && cfg.name != "" {
		s.def = cfg.name
		s.hasDefault = true
	}
	if !cfg.optional {
		cfg.optional = !s.required
	}

	kind := &valueKind[string]{
		desc:   func() string { return "configuration section name" },
		parse:  func(text string) (string, error) { return strings.TrimSpace(text), nil },
		format: func(v string) string { return v },
		equal:  func(a, b string) bool { return a == b },
		save:   saveString(func(v string) string { return v }),
		load:   stringArm(func(text string) (string, error) { return strings.TrimSpace(text), nil }),
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	o := &ConfigOption{option: base, cfg: cfg}
	o.sync()
	return o, nil
}

// Config returns the embedded config.
func (o *ConfigOption) Config() *Config { return o.cfg }

func (o *ConfigOption) sync() { o.cfg.name = o.Value() }

func (o *ConfigOption) attach(*Config) {}

func (o *ConfigOption) heldConfigs() []*Config {
	if o.cfg.name == "" {
		return nil
	}
	return []*Config{o.cfg}
}

func (o *ConfigOption) Set(section string) error {
	defer o.sync()
	return o.option.Set(strings.TrimSpace(section))
}

func (o *ConfigOption) SetAny(v any) error {
	defer o.sync()
	return o.option.SetAny(v)
}

func (o *ConfigOption) LoadString(text string) error {
	defer o.sync()
	return o.option.LoadString(text)
}

func (o *ConfigOption) LoadProto(msg *configpb.ConfigMessage) error {
	defer o.sync()
	return o.option.LoadProto(msg)
}

// Clear resets the section name and clears the embedded config.
func (o *ConfigOption) Clear(toDefault bool) {
	o.option.Clear(toDefault)
	o.cfg.Clear(toDefault)
	o.sync()
}

// Validate fails when a required section name is missing, and otherwise
// validates the embedded config.
func (o *ConfigOption) Validate() error {
	if o.Value() == "" {
		if o.Required() {
			return &ValidationError{Path: o.Name(), Message: "missing value for required option"}
		}
		return nil
	}
	return o.cfg.Validate()
}

// ConfigListOption holds a list of configs created on demand by a factory,
// one per section name in the option value.
type ConfigListOption struct {
	*option[[]string]
	factory func(section string) *Config
	items   []*Config
	owner   *Config
}

// NewConfigListOption declares a list of configs. factory must return a new
// Config for the given section name.
func NewConfigListOption(name, description string, factory func(section string) *Config, settings ...OptionSetting) (*ConfigListOption, error) {
	if factory == nil {
		return nil, &ConstructionError{Name: name, Message: "config factory required"}
	}
	s := applySettings(settings)
	kind := listKind("list of configuration section names", listFormat{sep: s.separator},
		func(v string) string { return v },
		func(text string) (string, error) { return text, nil },
	)
	kind.check = func(v []string) error {
		for i, section := range v {
			if section == "" {
				return fmt.Errorf("item[%d]: empty section name", i)
			}
		}
		return nil
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	o := &ConfigListOption{option: base, factory: factory}
	if err := o.sync(); err != nil {
		return nil, &ConstructionError{Name: name, Message: err.Error()}
	}
	return o, nil
}

// Configs returns the configs in value order.
func (o *ConfigListOption) Configs() []*Config { return slices.Clone(o.items) }

func (o *ConfigListOption) heldConfigs() []*Config { return o.Configs() }

func (o *ConfigListOption) attach(owner *Config) { o.owner = owner }

// sync rebuilds the config list from the section names, keeping configs of
// sections that remain listed.
func (o *ConfigListOption) sync() error {
	existing := make(map[string]*Config, len(o.items))
	for _, item := range o.items {
		existing[item.name] = item
	}
	items := make([]*Config, 0, len(o.Value()))
	for _, section := range o.Value() {
		if cfg, ok := existing[section]; ok {
			items = append(items, cfg)
			continue
		}
		cfg := o.factory(section)
		if cfg == nil {
			return fmt.Errorf("factory returned no config for section %q", section)
		}
		cfg.name = section
		if o.owner != nil {
			o.owner.inherit(cfg)
		}
		items = append(items, cfg)
	}
	o.items = items
	return nil
}

func (o *ConfigListOption) syncErr(err error) error {
	if err != nil {
		return err
	}
	if err := o.sync(); err != nil {
		return &ValidationError{Path: o.Name(), Message: err.Error()}
	}
	return nil
}

func (o *ConfigListOption) Set(sections []string) error {
	return o.syncErr(o.option.Set(sections))
}

func (o *ConfigListOption) SetAny(v any) error {
	return o.syncErr(o.option.SetAny(v))
}

func (o *ConfigListOption) LoadString(text string) error {
	return o.syncErr(o.option.LoadString(text))
}

func (o *ConfigListOption) LoadProto(msg *configpb.ConfigMessage) error {
	return o.syncErr(o.option.LoadProto(msg))
}

// Append adds a section and returns its config.
func (o *ConfigListOption) Append(section string) (*Config, error) {
	if err := o.Set(append(o.Value(), section)); err != nil {
		return nil, err
	}
	return o.items[len(o.items)-1], nil
}

// Clear drops all configs and resets the section list.
func (o *ConfigListOption) Clear(toDefault bool) {
	o.items = nil
	o.option.Clear(toDefault)
	_ = o.sync()
}

// Validate fails for an empty required list, then validates every config.
func (o *ConfigListOption) Validate() error {
	if err := o.option.Validate(); err != nil {
		return err
	}
	if o.Required() && len(o.Value()) == 0 {
		return &ValidationError{Path: o.Name(), Message: "list of configurations is empty"}
	}
	for _, item := range o.items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
