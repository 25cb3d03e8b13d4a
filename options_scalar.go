// FILE: lixenwraith/optcfg/options_scalar.go
package optcfg

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lixenwraith/optcfg/configpb"
)

// StringOption holds free text. Multi-line values are supported.
type StringOption struct {
	*option[string]
}

// NewStringOption declares a string option.
func NewStringOption(name, description string, settings ...OptionSetting) (*StringOption, error) {
	kind := &valueKind[string]{
		desc:   func() string { return "str" },
		parse:  func(s string) (string, error) { return unindentVerticals(s), nil },
		format: func(v string) string { return v },
		present: func(v string) string {
			return indentText(v, needsVerticals(v))
		},
		equal: func(a, b string) bool { return a == b },
		save:  saveString(func(v string) string { return v }),
		load:  stringArm(func(s string) (string, error) { return s, nil }),
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &StringOption{base}, nil
}

// IntOption holds a 64-bit integer. Negative values are rejected unless the
// option is declared Signed.
type IntOption struct {
	*option[int64]
	signed bool
}

// NewIntOption declares an integer option.
func NewIntOption(name, description string, settings ...OptionSetting) (*IntOption, error) {
	s := applySettings(settings)
	kind := &valueKind[int64]{
		desc:   func() string { return "int" },
		parse:  parseInt,
		format: formatInt,
		equal:  func(a, b int64) bool { return a == b },
		check: func(v int64) error {
			if !s.signed && v < 0 {
				return errors.New("negative value not allowed")
			}
			return nil
		},
		save: func(v int64) (*configpb.Value, error) {
			if s.signed {
				return configpb.Sint64Value(v), nil
			}
			return configpb.Uint64Value(uint64(v)), nil
		},
		load: loadInt,
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &IntOption{option: base, signed: s.signed}, nil
}

// Signed reports whether negative values are accepted.
func (o *IntOption) Signed() bool { return o.signed }

func loadInt(v *configpb.Value) (int64, error) {
	switch v.Kind {
	case configpb.KindSint32:
		return int64(v.AsSint32), nil
	case configpb.KindSint64:
		return v.AsSint64, nil
	case configpb.KindUint32:
		return int64(v.AsUint32), nil
	case configpb.KindUint64:
		if v.AsUint64 > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", v.AsUint64)
		}
		return int64(v.AsUint64), nil
	case configpb.KindString:
		return parseInt(v.AsString)
	}
	return 0, errWrongArm
}

// FloatOption holds a float64.
type FloatOption struct {
	*option[float64]
}

// NewFloatOption declares a floating point option.
func NewFloatOption(name, description string, settings ...OptionSetting) (*FloatOption, error) {
	kind := &valueKind[float64]{
		desc:   func() string { return "float" },
		parse:  parseFloat,
		format: formatFloat,
		equal:  func(a, b float64) bool { return a == b || (math.IsNaN(a) && math.IsNaN(b)) },
		save: func(v float64) (*configpb.Value, error) {
			return configpb.DoubleValue(v), nil
		},
		load: func(v *configpb.Value) (float64, error) {
			switch v.Kind {
			case configpb.KindFloat:
				return float64(v.AsFloat), nil
			case configpb.KindDouble:
				return v.AsDouble, nil
			case configpb.KindString:
				return parseFloat(v.AsString)
			}
			return 0, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &FloatOption{base}, nil
}

// DecimalOption holds an arbitrary precision decimal number.
type DecimalOption struct {
	*option[decimal.Decimal]
}

// NewDecimalOption declares a decimal option. Default accepts decimal.Decimal
// or its string form.
func NewDecimalOption(name, description string, settings ...OptionSetting) (*DecimalOption, error) {
	s := applySettings(settings)
	if str, ok := s.def.(string); ok && s.hasDefault {
		d, err := parseDecimal(str)
		if err != nil {
			return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("invalid default: %v", err)}
		}
		s.def = d
	}
	kind := &valueKind[decimal.Decimal]{
		desc:   func() string { return "Decimal" },
		parse:  parseDecimal,
		format: decimal.Decimal.String,
		equal:  decimal.Decimal.Equal,
		save: func(v decimal.Decimal) (*configpb.Value, error) {
			return configpb.StringValue(v.String()), nil
		},
		load: func(v *configpb.Value) (decimal.Decimal, error) {
			switch v.Kind {
			case configpb.KindSint32:
				return decimal.NewFromInt32(v.AsSint32), nil
			case configpb.KindSint64:
				return decimal.NewFromInt(v.AsSint64), nil
			case configpb.KindUint32:
				return decimal.NewFromInt(int64(v.AsUint32)), nil
			case configpb.KindUint64:
				return decimal.NewFromString(strconv.FormatUint(v.AsUint64, 10))
			case configpb.KindString:
				return parseDecimal(v.AsString)
			}
			return decimal.Decimal{}, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &DecimalOption{base}, nil
}

// BoolOption holds a boolean, written as yes or no.
type BoolOption struct {
	*option[bool]
}

// NewBoolOption declares a boolean option.
func NewBoolOption(name, description string, settings ...OptionSetting) (*BoolOption, error) {
	kind := &valueKind[bool]{
		desc:   func() string { return "bool" },
		parse:  parseBool,
		format: formatBool,
		equal:  func(a, b bool) bool { return a == b },
		save: func(v bool) (*configpb.Value, error) {
			return configpb.BoolValue(v), nil
		},
		load: func(v *configpb.Value) (bool, error) {
			switch v.Kind {
			case configpb.KindBool:
				return v.AsBool, nil
			case configpb.KindString:
				return parseBool(v.AsString)
			}
			return false, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &BoolOption{base}, nil
}
