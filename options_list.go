// FILE: lixenwraith/optcfg/options_list.go
package optcfg

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lixenwraith/optcfg/configpb"
)

// List text encoding
//
// Items are joined with the option separator. Without an explicit separator a
// comma is used, or a newline when the items exceed 80 characters in total;
// on input a value containing a line break is split on newlines, otherwise on
// commas. Inside an item a backslash escapes itself, the separator (and the
// comma when the separator is automatic), and "\n" stands for a line break.
// Leading and trailing whitespace of an item is written as "\s" (space),
// "\t", "\r", "\n" or "\u{hex}", and "\0" stands for an empty item.
// Unescaped whitespace around items is trimmed and empty items are dropped.
//
// On the wire the joined text is stored in the string arm. When any item needs
// escaping the items are stored instead as a google.protobuf.ListValue of
// strings in the message arm, so peers that only split on the separator never
// see escape sequences.

const (
	autoSeparatorLimit = 80
	emptyItem          = `\0`
)

type listFormat struct {
	sep string
}

func (f listFormat) escape(s string) string {
	if s == "" {
		return emptyItem
	}
	start := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	end := max(len(strings.TrimRightFunc(s, unicode.IsSpace)), start)

	var sb strings.Builder
	for _, r := range s[:start] {
		escapeSpace(&sb, r)
	}
	f.escapeBody(&sb, s[start:end])
	for _, r := range s[end:] {
		escapeSpace(&sb, r)
	}
	return sb.String()
}

func escapeSpace(sb *strings.Builder, r rune) {
	switch r {
	case ' ':
		sb.WriteString(`\s`)
	case '\t':
		sb.WriteString(`\t`)
	case '\r':
		sb.WriteString(`\r`)
	case '\n':
		sb.WriteString(`\n`)
	default:
		fmt.Fprintf(sb, `\u{%x}`, r)
	}
}

func (f listFormat) escapeBody(sb *strings.Builder, s string) {
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\':
			sb.WriteString(`\\`)
			i++
		case s[i] == '\n':
			sb.WriteString(`\n`)
			i++
		case f.sep == "" && s[i] == ',':
			sb.WriteString(`\,`)
			i++
		case f.sep != "" && f.sep != "\n" && strings.HasPrefix(s[i:], f.sep):
			sb.WriteString(`\` + f.sep)
			i += len(f.sep)
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
}

func (f listFormat) effectiveSep(items []string) string {
	if f.sep != "" {
		return f.sep
	}
	total := 0
	for _, item := range items {
		total += len(item)
	}
	if total > autoSeparatorLimit {
		return "\n"
	}
	return ","
}

// join renders escaped items in compact form.
func (f listFormat) join(items []string) string {
	return strings.Join(items, f.effectiveSep(items))
}

// present renders escaped items for configuration files.
func (f listFormat) present(items []string) string {
	sep := f.effectiveSep(items)
	if sep == "\n" {
		if len(items) == 0 {
			return ""
		}
		return "\n   " + strings.Join(items, "\n   ")
	}
	return strings.Join(items, sep+" ")
}

// split cuts text on unescaped separators and returns unescaped items.
func (f listFormat) split(text string) []string {
	sep := f.sep
	if sep == "" {
		sep = ","
		if strings.Contains(text, "\n") {
			sep = "\n"
		}
	}

	var raw []string
	start := 0
	for i := 0; i < len(text); {
		if text[i] == '\\' && i+1 < len(text) {
			i += 2
			if strings.HasPrefix(text[i-1:], sep) {
				i += len(sep) - 1
			}
			continue
		}
		if strings.HasPrefix(text[i:], sep) {
			raw = append(raw, text[start:i])
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	raw = append(raw, text[start:])

	items := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			items = append(items, unescapeItem(r))
		}
	}
	return items
}

func unescapeItem(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 's':
			sb.WriteByte(' ')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
		case 'u':
			if r, n, ok := hexRune(s[i+1:]); ok {
				sb.WriteRune(r)
				i += n
			} else {
				sb.WriteByte('u')
			}
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// hexRune decodes a "{hex}" rune reference at the start of s.
func hexRune(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:end], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return rune(v), end + 1, true
}

// listKind builds the value behaviour shared by list options. formatItem
// renders an item in its typed text form and parseItem reverses it.
func listKind[T any](desc string, f listFormat, formatItem func(T) string, parseItem func(string) (T, error)) *valueKind[[]T] {
	render := func(v []T) (raw, escaped []string) {
		raw = make([]string, len(v))
		escaped = make([]string, len(v))
		for i, item := range v {
			raw[i] = formatItem(item)
			escaped[i] = f.escape(raw[i])
		}
		return raw, escaped
	}
	parseAll := func(items []string) ([]T, error) {
		result := make([]T, 0, len(items))
		for i, item := range items {
			v, err := parseItem(item)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, err)
			}
			result = append(result, v)
		}
		return result, nil
	}
	parse := func(text string) ([]T, error) {
		return parseAll(f.split(text))
	}

	return &valueKind[[]T]{
		desc:  func() string { return desc },
		parse: parse,
		format: func(v []T) string {
			_, escaped := render(v)
			return f.join(escaped)
		},
		present: func(v []T) string {
			_, escaped := render(v)
			return f.present(escaped)
		},
		equal: func(a, b []T) bool {
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if formatItem(a[i]) != formatItem(b[i]) {
					return false
				}
			}
			return true
		},
		clone: func(v []T) []T { return slices.Clone(v) },
		save: func(v []T) (*configpb.Value, error) {
			raw, escaped := render(v)
			if slices.Equal(raw, escaped) {
				return configpb.StringValue(f.join(raw)), nil
			}
			values := make([]any, len(raw))
			for i, r := range raw {
				values[i] = r
			}
			list, err := structpb.NewList(values)
			if err != nil {
				return nil, err
			}
			return configpb.MsgValue(list)
		},
		load: func(v *configpb.Value) ([]T, error) {
			switch v.Kind {
			case configpb.KindString:
				return parse(v.AsString)
			case configpb.KindMsg:
				list := &structpb.ListValue{}
				if v.AsMsg == nil || !v.AsMsg.MessageIs(list) {
					return nil, errWrongArm
				}
				if err := v.AsMsg.UnmarshalTo(list); err != nil {
					return nil, err
				}
				items := make([]string, 0, len(list.GetValues()))
				for i, lv := range list.GetValues() {
					s, ok := lv.GetKind().(*structpb.Value_StringValue)
					if !ok {
						return nil, fmt.Errorf("item[%d]: list item is not a string", i)
					}
					items = append(items, s.StringValue)
				}
				return parseAll(items)
			}
			return nil, errWrongArm
		},
	}
}

// ListOption holds a list of values of a single type with a registered codec.
type ListOption[T any] struct {
	*option[[]T]
	separator string
}

// NewListOption declares a list option. The item type T must have a codec in
// the registry selected by WithCodecs (DefaultCodecs otherwise).
func NewListOption[T any](name, description string, settings ...OptionSetting) (*ListOption[T], error) {
	s := applySettings(settings)
	itemType := TypeOf[T]()
	if !s.codecs.HasCodec(itemType) {
		return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("no codec for item type %s", itemType)}
	}
	codecs := s.codecs
	formatItem := func(v T) string {
		str, err := encodeValue(codecs, v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return str
	}
	parseItem := func(text string) (T, error) {
		return decodeValue[T](codecs, text)
	}
	desc := fmt.Sprintf("list [%s]", codecName(codecs, itemType))
	kind := listKind(desc, listFormat{sep: s.separator}, formatItem, parseItem)

	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &ListOption[T]{option: base, separator: s.separator}, nil
}

// Append adds items to the current value.
func (o *ListOption[T]) Append(items ...T) error {
	return o.Set(append(o.Value(), items...))
}

// Separator returns the declared separator, empty when automatic.
func (o *ListOption[T]) Separator() string { return o.separator }

// MixedListOption holds a list whose items may be of several types. With more
// than one item type each item is written as "type:value"; string values are
// taken verbatim after the colon, other values are trimmed.
type MixedListOption struct {
	*option[[]any]
	itemTypes []reflect.Type
}

// NewMixedListOption declares a list option accepting itemTypes.
func NewMixedListOption(name, description string, itemTypes []reflect.Type, settings ...OptionSetting) (*MixedListOption, error) {
	if len(itemTypes) == 0 {
		return nil, &ConstructionError{Name: name, Message: "at least one item type required"}
	}
	s := applySettings(settings)
	codecs := s.codecs
	byName := make(map[string]reflect.Type, len(itemTypes))
	names := make([]string, 0, len(itemTypes))
	for _, t := range itemTypes {
		if t == nil || !codecs.HasCodec(t) {
			return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("no codec for item type %v", t)}
		}
		n := codecName(codecs, t)
		byName[n] = t
		names = append(names, n)
	}
	typed := len(itemTypes) > 1

	formatItem := func(v any) string {
		str, err := codecs.ToString(reflect.TypeOf(v), v)
		if err != nil {
			str = fmt.Sprint(v)
		}
		if typed {
			return codecName(codecs, reflect.TypeOf(v)) + ":" + str
		}
		return str
	}
	parseItem := func(text string) (any, error) {
		t := itemTypes[0]
		if typed {
			typeName, value, ok := strings.Cut(text, ":")
			if !ok {
				return nil, fmt.Errorf("item type prefix required in '%s'", text)
			}
			if t, ok = byName[strings.TrimSpace(typeName)]; !ok {
				return nil, fmt.Errorf("item type '%s' not supported", strings.TrimSpace(typeName))
			}
			text = value
			if t != stringType {
				text = strings.TrimSpace(value)
			}
		}
		return codecs.FromString(t, text)
	}

	kind := listKind(fmt.Sprintf("list [%s]", strings.Join(names, ", ")), listFormat{sep: s.separator}, formatItem, parseItem)
	kind.check = func(v []any) error {
		for i, item := range v {
			if item == nil || !slices.Contains(itemTypes, reflect.TypeOf(item)) {
				return fmt.Errorf("list item[%d] has wrong type %T", i, item)
			}
		}
		return nil
	}

	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &MixedListOption{option: base, itemTypes: slices.Clone(itemTypes)}, nil
}

var stringType = TypeOf[string]()

// ItemTypes returns the accepted item types.
func (o *MixedListOption) ItemTypes() []reflect.Type { return slices.Clone(o.itemTypes) }

// codecName returns the registered short name for t, or its Go name when the
// registry does not expose names.
func codecName(r CodecRegistry, t reflect.Type) string {
	if named, ok := r.(interface {
		Lookup(reflect.Type) (*Codec, bool)
	}); ok {
		if c, found := named.Lookup(t); found {
			return c.Name
		}
	}
	return t.String()
}
