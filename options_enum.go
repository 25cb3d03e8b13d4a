// FILE: lixenwraith/optcfg/options_enum.go
package optcfg

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lixenwraith/optcfg/configpb"
)

// Enum is the constraint for enumerated option values.
type Enum interface {
	comparable
	fmt.Stringer
}

// Flags is the constraint for bit set option values. Each declared member is
// expected to be a distinct bit or bit combination.
type Flags interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
	fmt.Stringer
}

// EnumOption holds one member of an enumeration. Member names are matched
// case-insensitively and written in lower case.
type EnumOption[E Enum] struct {
	*option[E]
	allowed []E
}

// NewEnumOption declares an enum option over members. The Allowed setting
// narrows the accepted members further.
func NewEnumOption[E Enum](name, description string, members []E, settings ...OptionSetting) (*EnumOption[E], error) {
	s := applySettings(settings)
	allowed, err := narrowMembers(name, members, s.allowed)
	if err != nil {
		return nil, err
	}
	byName := enumIndex(allowed)
	format := func(v E) string { return strings.ToLower(v.String()) }

	kind := &valueKind[E]{
		desc: func() string {
			return "enum [" + strings.Join(memberNames(allowed), ", ") + "]"
		},
		parse:  func(s string) (E, error) { return lookupEnum(byName, s) },
		format: format,
		equal:  func(a, b E) bool { return a == b },
		check: func(v E) error {
			if !slices.Contains(allowed, v) {
				return fmt.Errorf("value '%s' not allowed", format(v))
			}
			return nil
		},
		save: saveString(format),
		load: stringArm(func(s string) (E, error) { return lookupEnum(byName, s) }),
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &EnumOption[E]{option: base, allowed: allowed}, nil
}

// Allowed returns the accepted members.
func (o *EnumOption[E]) Allowed() []E { return slices.Clone(o.allowed) }

// FlagOption holds a combination of flag members, written as "a | b".
type FlagOption[F Flags] struct {
	*option[F]
	allowed []F
}

// NewFlagOption declares a flag option over members.
func NewFlagOption[F Flags](name, description string, members []F, settings ...OptionSetting) (*FlagOption[F], error) {
	s := applySettings(settings)
	allowed, err := narrowMembers(name, members, s.allowed)
	if err != nil {
		return nil, err
	}
	byName := enumIndex(allowed)
	var mask F
	for _, m := range allowed {
		mask |= m
	}

	parse := func(text string) (F, error) {
		sep := ","
		if strings.Contains(text, "|") {
			sep = "|"
		}
		var result F
		for _, part := range strings.Split(text, sep) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			m, err := lookupEnum(byName, part)
			if err != nil {
				return 0, err
			}
			result |= m
		}
		return result, nil
	}
	format := func(v F) string {
		var names []string
		for _, m := range allowed {
			if m != 0 && v&m == m {
				names = append(names, strings.ToLower(m.String()))
			}
		}
		return strings.Join(names, " | ")
	}

	kind := &valueKind[F]{
		desc: func() string {
			return "flag [" + strings.Join(memberNames(allowed), ", ") + "]"
		},
		parse:  parse,
		format: format,
		equal:  func(a, b F) bool { return a == b },
		check: func(v F) error {
			if v&^mask != 0 {
				return fmt.Errorf("flag value %d contains bits outside of allowed members", uint64(v))
			}
			return nil
		},
		save: func(v F) (*configpb.Value, error) {
			return configpb.Uint64Value(uint64(v)), nil
		},
		load: func(v *configpb.Value) (F, error) {
			switch v.Kind {
			case configpb.KindUint64:
				return F(v.AsUint64), nil
			case configpb.KindString:
				return parse(v.AsString)
			}
			return 0, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &FlagOption[F]{option: base, allowed: allowed}, nil
}

// Allowed returns the accepted members.
func (o *FlagOption[F]) Allowed() []F { return slices.Clone(o.allowed) }

// narrowMembers applies an Allowed setting to the declared members.
func narrowMembers[E comparable](name string, members []E, allowed []any) ([]E, error) {
	if len(members) == 0 {
		return nil, &ConstructionError{Name: name, Message: "no members declared"}
	}
	if len(allowed) == 0 {
		return slices.Clone(members), nil
	}
	result := make([]E, 0, len(allowed))
	for _, a := range allowed {
		e, ok := a.(E)
		if !ok || !slices.Contains(members, e) {
			return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("allowed value %v is not a member", a)}
		}
		result = append(result, e)
	}
	return result, nil
}

func memberNames[E fmt.Stringer](members []E) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = strings.ToLower(m.String())
	}
	return names
}
