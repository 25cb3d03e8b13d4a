// FILE: lixenwraith/optcfg/option.go
package optcfg

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/optcfg/configpb"
)

// undefined is the text emitted for options without a value.
const undefined = "<UNDEFINED>"

// Option is a single named, typed configuration value.
type Option interface {
	// Name is the member key used in text sections and wire messages.
	Name() string
	Description() string
	Required() bool
	// TypeDescription documents the value type in generated configuration text.
	TypeDescription() string
	HasValue() bool
	// IsDefault reports whether the current value equals the default.
	// An option with neither value nor default counts as default.
	IsDefault() bool
	Validate() error
	// Clear resets the value to a copy of the default, or unsets it.
	Clear(toDefault bool)
	// LoadString parses text and assigns the result.
	LoadString(text string) error
	// AsString renders the value, or the default when unset.
	AsString() string
	// Formatted renders the value for configuration files.
	Formatted() string
	// GetConfig renders the documentation block and assignment line.
	GetConfig(plain bool) string
	// ValueAny returns the current value or nil when unset.
	ValueAny() any
	// SetAny assigns v after a type check. A nil v unsets the value.
	SetAny(v any) error
	SaveProto(msg *configpb.ConfigMessage) error
	LoadProto(msg *configpb.ConfigMessage) error
}

// OptionSetting adjusts an option declaration. Settings that do not apply to
// an option type are ignored.
type OptionSetting func(*optionSettings)

type optionSettings struct {
	required   bool
	def        any
	hasDefault bool
	signed     bool
	separator  string
	codecs     CodecRegistry
	scheme     DirectoryScheme
	messages   MessageRegistry
	allowed    []any
}

// Required marks the option as mandatory.
func Required() OptionSetting {
	return func(s *optionSettings) { s.required = true }
}

// Default sets the default value. Numeric and string-based values are
// converted to the option type when possible.
func Default(v any) OptionSetting {
	return func(s *optionSettings) {
		s.def = v
		s.hasDefault = true
	}
}

// Signed allows negative values for integer options.
func Signed() OptionSetting {
	return func(s *optionSettings) { s.signed = true }
}

// Separator fixes the item separator of list options.
func Separator(sep string) OptionSetting {
	return func(s *optionSettings) { s.separator = sep }
}

// WithCodecs selects the codec registry used for item conversion.
func WithCodecs(r CodecRegistry) OptionSetting {
	return func(s *optionSettings) { s.codecs = r }
}

// WithScheme selects the directory scheme used by path options.
func WithScheme(ds DirectoryScheme) OptionSetting {
	return func(s *optionSettings) { s.scheme = ds }
}

// WithMessageRegistry selects the registry used by message options.
func WithMessageRegistry(r MessageRegistry) OptionSetting {
	return func(s *optionSettings) { s.messages = r }
}

// Allowed restricts enum options to the given members.
func Allowed(values ...any) OptionSetting {
	return func(s *optionSettings) { s.allowed = append(s.allowed, values...) }
}

func applySettings(settings []OptionSetting) *optionSettings {
	s := &optionSettings{codecs: DefaultCodecs}
	for _, fn := range settings {
		if fn != nil {
			fn(s)
		}
	}
	return s
}

// Must panics if err is non-nil and returns v otherwise. It is intended for
// static option declarations.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("option declaration failed: %v", err))
	}
	return v
}

// errWrongArm signals a wire value in an arm the option does not accept.
var errWrongArm = errors.New("wrong value arm")

// valueKind holds the type-specific behaviour of an option.
type valueKind[T any] struct {
	desc   func() string
	parse  func(text string) (T, error)
	format func(v T) string
	// present renders the value for configuration files; format is used when nil.
	present func(v T) string
	equal   func(a, b T) bool
	clone   func(v T) T
	// check reports an invalid value of the correct type.
	check func(v T) error
	save  func(v T) (*configpb.Value, error)
	// load decodes a wire value, returning errWrongArm for unsupported arms.
	load func(v *configpb.Value) (T, error)
}

// option is the shared implementation of all value-carrying options.
type option[T any] struct {
	name        string
	description string
	required    bool
	def         T
	hasDefault  bool
	value       T
	isSet       bool
	kind        *valueKind[T]
}

func newOption[T any](name, description string, kind *valueKind[T], s *optionSettings) (*option[T], error) {
	if !isValidKeySegment(name) {
		return nil, &ConstructionError{Name: name, Message: "invalid option name"}
	}
	o := &option[T]{
		name:        name,
		description: description,
		required:    s.required,
		kind:        kind,
	}
	if s.hasDefault && s.def != nil {
		def, err := convertTo[T](s.def)
		if err != nil {
			return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("invalid default: %v", err)}
		}
		if kind.check != nil {
			if err := kind.check(def); err != nil {
				return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("invalid default: %v", err)}
			}
		}
		o.def = o.copyOf(def)
		o.hasDefault = true
	}
	o.Clear(true)
	return o, nil
}

func (o *option[T]) Name() string        { return o.name }
func (o *option[T]) Description() string { return o.description }
func (o *option[T]) Required() bool      { return o.required }
func (o *option[T]) HasValue() bool      { return o.isSet }

func (o *option[T]) TypeDescription() string { return o.kind.desc() }

// Value returns the current value, or the zero value when unset.
func (o *option[T]) Value() T { return o.value }

// Get returns the current value and whether it is set.
func (o *option[T]) Get() (T, bool) { return o.value, o.isSet }

// Default returns the default value and whether one was declared.
func (o *option[T]) Default() (T, bool) {
	return o.copyOf(o.def), o.hasDefault
}

// Set assigns v. The option keeps its own copy of mutable values.
func (o *option[T]) Set(v T) error {
	if o.kind.check != nil {
		if err := o.kind.check(v); err != nil {
			return &ValidationError{Path: o.name, Message: err.Error()}
		}
	}
	o.value = o.copyOf(v)
	o.isSet = true
	return nil
}

func (o *option[T]) SetAny(v any) error {
	if v == nil {
		o.Clear(false)
		return nil
	}
	tv, err := convertTo[T](v)
	if err != nil {
		return &ValidationError{Path: o.name, Message: err.Error()}
	}
	return o.Set(tv)
}

func (o *option[T]) ValueAny() any {
	if !o.isSet {
		return nil
	}
	return o.value
}

func (o *option[T]) Clear(toDefault bool) {
	var zero T
	if toDefault && o.hasDefault {
		o.value = o.copyOf(o.def)
		o.isSet = true
		return
	}
	o.value = zero
	o.isSet = false
}

func (o *option[T]) IsDefault() bool {
	if o.isSet != o.hasDefault {
		return false
	}
	if !o.isSet {
		return true
	}
	return o.equals(o.value, o.def)
}

func (o *option[T]) Validate() error {
	if !o.isSet {
		if o.required {
			return &ValidationError{Path: o.name, Message: "missing value for required option"}
		}
		return nil
	}
	if o.kind.check != nil {
		if err := o.kind.check(o.value); err != nil {
			return &ValidationError{Path: o.name, Message: err.Error()}
		}
	}
	return nil
}

func (o *option[T]) LoadString(text string) error {
	v, err := o.kind.parse(text)
	if err == nil && o.kind.check != nil {
		err = o.kind.check(v)
	}
	if err != nil {
		return &ParseError{Path: o.name, Text: text, Err: err}
	}
	o.value = v
	o.isSet = true
	return nil
}

func (o *option[T]) AsString() string {
	switch {
	case o.isSet:
		return o.kind.format(o.value)
	case o.hasDefault:
		return o.kind.format(o.def)
	}
	return ""
}

func (o *option[T]) Formatted() string {
	if !o.isSet {
		return undefined
	}
	if o.kind.present != nil {
		return o.kind.present(o.value)
	}
	return o.kind.format(o.value)
}

func (o *option[T]) GetConfig(plain bool) string {
	return renderOption(o, plain)
}

func (o *option[T]) SaveProto(msg *configpb.ConfigMessage) error {
	if !o.isSet {
		return nil
	}
	v, err := o.kind.save(o.value)
	if err != nil {
		return &ProtocolError{Path: o.name, Err: err}
	}
	msg.SetOption(o.name, v)
	return nil
}

func (o *option[T]) LoadProto(msg *configpb.ConfigMessage) error {
	wire, ok := msg.Option(o.name)
	if !ok || wire == nil {
		return nil
	}
	v, err := o.kind.load(wire)
	if err == nil && o.kind.check != nil {
		err = o.kind.check(v)
	}
	if err != nil {
		if errors.Is(err, errWrongArm) {
			return &ProtocolError{Path: o.name, Kind: wire.Kind}
		}
		return &ParseError{Path: o.name, Text: wireText(wire), Err: err}
	}
	o.value = v
	o.isSet = true
	return nil
}

func (o *option[T]) copyOf(v T) T {
	if o.kind.clone != nil {
		return o.kind.clone(v)
	}
	return v
}

func (o *option[T]) equals(a, b T) bool {
	if o.kind.equal != nil {
		return o.kind.equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// renderOption produces the configuration text for o: comment lines with the
// description and type, then the assignment. The assignment is commented out
// when the value equals the default, except in plain mode.
func renderOption(o Option, plain bool) string {
	var sb strings.Builder
	nodef := ""
	if !plain {
		if o.Required() {
			sb.WriteString("; REQUIRED option.\n")
		}
		for _, line := range splitLines(strings.TrimSpace(o.Description())) {
			sb.WriteString("; " + line + "\n")
		}
		for i, line := range splitLines(o.TypeDescription()) {
			if i == 0 {
				line = "Type: " + line
			}
			sb.WriteString("; " + line + "\n")
		}
		if o.IsDefault() {
			nodef = ";"
		}
	}
	lines := strings.Split(o.Formatted(), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = nodef + lines[i]
	}
	fmt.Fprintf(&sb, "%s%s = %s\n", nodef, o.Name(), strings.Join(lines, "\n"))
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// wireText returns a printable form of a wire value for error reports.
func wireText(v *configpb.Value) string {
	switch v.Kind {
	case configpb.KindString:
		return v.AsString
	case configpb.KindMsg:
		if v.AsMsg != nil {
			return v.AsMsg.GetTypeUrl()
		}
	}
	return v.Kind.String()
}

// convertTo converts v to T. Besides exact matches it accepts numeric values
// of another numeric kind and strings for string-based types.
func convertTo[T any](v any) (T, error) {
	var zero T
	if tv, ok := v.(T); ok {
		return tv, nil
	}
	target := TypeOf[T]()
	rv := reflect.ValueOf(v)
	if rv.IsValid() && convertible(rv.Type(), target) {
		if tv, ok := rv.Convert(target).Interface().(T); ok {
			return tv, nil
		}
	}
	return zero, fmt.Errorf("value of type %T not allowed, expected %s", v, target)
}

func convertible(from, to reflect.Type) bool {
	switch {
	case isInteger(from.Kind()) && (isInteger(to.Kind()) || isFloat(to.Kind())):
		return true
	case isFloat(from.Kind()) && isFloat(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	}
	return false
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// stringArm decodes the string arm with parse and rejects all other arms.
func stringArm[T any](parse func(string) (T, error)) func(*configpb.Value) (T, error) {
	return func(v *configpb.Value) (T, error) {
		if v.Kind != configpb.KindString {
			var zero T
			return zero, errWrongArm
		}
		return parse(v.AsString)
	}
}

// saveString encodes the value in the string arm.
func saveString[T any](format func(T) string) func(T) (*configpb.Value, error) {
	return func(v T) (*configpb.Value, error) {
		return configpb.StringValue(format(v)), nil
	}
}

// Vertical bar notation keeps significant leading whitespace of multi-line
// text intact, as INI readers strip indentation from continuation lines.

// needsVerticals reports whether s must be written with vertical bars.
func needsVerticals(s string) bool {
	for i, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' || line[0] == '|' {
			return true
		}
		if i > 0 && (line[0] == ';' || line[0] == '#') {
			return true
		}
	}
	return false
}

// indentText formats multi-line text as an INI continuation value.
func indentText(s string, verticals bool) string {
	if !verticals && !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		switch {
		case verticals && i == 0:
			lines[i] = "| " + line
		case verticals:
			lines[i] = "   | " + line
		case i > 0 && line != "":
			lines[i] = "   " + line
		}
	}
	return strings.Join(lines, "\n")
}

// unindentVerticals strips the vertical bar marker from each marked line.
func unindentVerticals(s string) string {
	if !strings.Contains(s, "|") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "| "):
			lines[i] = line[2:]
		case strings.HasPrefix(line, "|"):
			lines[i] = line[1:]
		}
	}
	return strings.Join(lines, "\n")
}
