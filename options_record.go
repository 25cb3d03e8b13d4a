// FILE: lixenwraith/optcfg/options_record.go
package optcfg

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// RecordOption holds a struct value written as a list of "field:value"
// items. Field names come from the `config` tag or the lower-cased Go field
// name; values are converted with the codec registry.
type RecordOption[T any] struct {
	*option[T]
	fields []recordField
}

type recordField struct {
	name  string
	index int
	typ   reflect.Type
}

// NewRecordOption declares a record option. T must be a struct type.
func NewRecordOption[T any](name, description string, settings ...OptionSetting) (*RecordOption[T], error) {
	s := applySettings(settings)
	rt := TypeOf[T]()
	if rt.Kind() != reflect.Struct {
		return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("record type must be a struct, got %s", rt)}
	}
	fields := recordFields(rt)
	if len(fields) == 0 {
		return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("record type %s has no exported fields", rt)}
	}
	codecs := s.codecs
	f := listFormat{sep: s.separator}

	render := func(v T) []string {
		rv := reflect.ValueOf(v)
		items := make([]string, 0, len(fields))
		for _, fd := range fields {
			fv := rv.Field(fd.index).Interface()
			str, err := codecs.ToString(fd.typ, fv)
			if err != nil {
				str = fmt.Sprint(fv)
			}
			items = append(items, f.escape(fd.name+":"+str))
		}
		return items
	}
	parse := func(text string) (T, error) {
		var result T
		input := make(map[string]any, len(fields))
		for _, item := range f.split(text) {
			key, value, ok := strings.Cut(item, ":")
			if !ok {
				return result, fmt.Errorf("item '%s' is not in field:value format", item)
			}
			key = strings.TrimSpace(key)
			if !hasField(fields, key) {
				return result, fmt.Errorf("unknown field '%s'", key)
			}
			input[key] = strings.TrimSpace(value)
		}
		if err := decodeMap(input, &result, codecs); err != nil {
			return result, err
		}
		return result, nil
	}
	format := func(v T) string { return f.join(render(v)) }

	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.name
	}

	kind := &valueKind[T]{
		desc: func() string {
			return "record, list of field:value items\nFields: " + strings.Join(names, ", ")
		},
		parse:   parse,
		format:  format,
		present: func(v T) string { return f.present(render(v)) },
		equal:   func(a, b T) bool { return format(a) == format(b) },
		save:    saveString(format),
		load:    stringArm(parse),
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &RecordOption[T]{option: base, fields: fields}, nil
}

// Fields returns the record field names in declaration order.
func (o *RecordOption[T]) Fields() []string {
	names := make([]string, len(o.fields))
	for i, fd := range o.fields {
		names[i] = fd.name
	}
	return names
}

func recordFields(rt reflect.Type) []recordField {
	var fields []recordField
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get(tagName), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = lowerFirst(sf.Name)
		}
		fields = append(fields, recordField{name: name, index: i, typ: sf.Type})
	}
	return fields
}

func hasField(fields []recordField, name string) bool {
	for _, fd := range fields {
		if fd.name == name {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
