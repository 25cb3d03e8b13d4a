// FILE: lixenwraith/optcfg/configpb/configpb.go

// Package configpb implements the binary exchange format for optcfg
// configurations. The wire layout is that of config.proto in this directory
// (message names firebird.base.Value and firebird.base.ConfigProto), encoded
// with protowire so no generated code is required.
package configpb

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// Message names as registered by the reference schema.
const (
	ValueMessageName  = "firebird.base.Value"
	ConfigMessageName = "firebird.base.ConfigProto"
)

// maxDepth bounds ConfigProto nesting accepted by Unmarshal.
const maxDepth = 64

// ErrMalformed is returned for undecodable input.
var ErrMalformed = errors.New("malformed config message")

// Kind identifies the populated arm of a Value. Each kind equals the protobuf
// field number of its arm.
type Kind protowire.Number

const (
	KindNone   Kind = 0
	KindString Kind = 1
	KindBytes  Kind = 2
	KindBool   Kind = 3
	KindDouble Kind = 4
	KindFloat  Kind = 5
	KindSint32 Kind = 6
	KindSint64 Kind = 7
	KindUint32 Kind = 8
	KindUint64 Kind = 9
	KindMsg    Kind = 10
)

var kindNames = map[Kind]string{
	KindNone:   "none",
	KindString: "string",
	KindBytes:  "bytes",
	KindBool:   "bool",
	KindDouble: "double",
	KindFloat:  "float",
	KindSint32: "sint32",
	KindSint64: "sint64",
	KindUint32: "uint32",
	KindUint64: "uint64",
	KindMsg:    "msg",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the tagged union carried for every option. Only the field that
// matches Kind is meaningful.
type Value struct {
	Kind     Kind
	AsString string
	AsBytes  []byte
	AsBool   bool
	AsDouble float64
	AsFloat  float32
	AsSint32 int32
	AsSint64 int64
	AsUint32 uint32
	AsUint64 uint64
	AsMsg    *anypb.Any
}

func StringValue(s string) *Value  { return &Value{Kind: KindString, AsString: s} }
func BytesValue(b []byte) *Value   { return &Value{Kind: KindBytes, AsBytes: b} }
func BoolValue(b bool) *Value      { return &Value{Kind: KindBool, AsBool: b} }
func DoubleValue(f float64) *Value { return &Value{Kind: KindDouble, AsDouble: f} }
func FloatValue(f float32) *Value  { return &Value{Kind: KindFloat, AsFloat: f} }
func Sint32Value(i int32) *Value   { return &Value{Kind: KindSint32, AsSint32: i} }
func Sint64Value(i int64) *Value   { return &Value{Kind: KindSint64, AsSint64: i} }
func Uint32Value(u uint32) *Value  { return &Value{Kind: KindUint32, AsUint32: u} }
func Uint64Value(u uint64) *Value  { return &Value{Kind: KindUint64, AsUint64: u} }

// MsgValue packs m into the message arm.
func MsgValue(m proto.Message) (*Value, error) {
	a, err := anypb.New(m)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %T: %w", m, err)
	}
	return &Value{Kind: KindMsg, AsMsg: a}, nil
}

// ConfigMessage is the recursive container for a Config and its sections.
type ConfigMessage struct {
	Options map[string]*Value
	Configs map[string]*ConfigMessage
}

// NewConfigMessage returns an empty message with allocated maps.
func NewConfigMessage() *ConfigMessage {
	return &ConfigMessage{
		Options: make(map[string]*Value),
		Configs: make(map[string]*ConfigMessage),
	}
}

// Sub returns the nested message for name, creating it when missing.
func (m *ConfigMessage) Sub(name string) *ConfigMessage {
	if m.Configs == nil {
		m.Configs = make(map[string]*ConfigMessage)
	}
	sub, ok := m.Configs[name]
	if !ok {
		sub = NewConfigMessage()
		m.Configs[name] = sub
	}
	return sub
}

// Option returns the value stored for name.
func (m *ConfigMessage) Option(name string) (*Value, bool) {
	v, ok := m.Options[name]
	return v, ok
}

// SetOption stores v under name.
func (m *ConfigMessage) SetOption(name string, v *Value) {
	if m.Options == nil {
		m.Options = make(map[string]*Value)
	}
	m.Options[name] = v
}

// Marshal encodes the message. Map entries are written in key order so equal
// messages produce identical bytes.
func (m *ConfigMessage) Marshal() ([]byte, error) {
	return m.appendTo(nil)
}

func (m *ConfigMessage) appendTo(b []byte) ([]byte, error) {
	for _, key := range sortedKeys(m.Options) {
		val, err := m.Options[key].marshal()
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key, err)
		}
		b = appendEntry(b, 1, key, val)
	}
	for _, key := range sortedKeys(m.Configs) {
		sub := m.Configs[key]
		if sub == nil {
			sub = &ConfigMessage{}
		}
		val, err := sub.appendTo(nil)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", key, err)
		}
		b = appendEntry(b, 2, key, val)
	}
	return b, nil
}

// appendEntry writes one map<string, message> entry.
func appendEntry(b []byte, field protowire.Number, key string, val []byte) []byte {
	var entry []byte
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, key)
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, val)

	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, entry)
}

func (v *Value) marshal() ([]byte, error) {
	var b []byte
	if v == nil {
		return b, nil
	}
	num := protowire.Number(v.Kind)
	switch v.Kind {
	case KindNone:
	case KindString:
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v.AsString)
	case KindBytes:
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, v.AsBytes)
	case KindBool:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.AsBool))
	case KindDouble:
		b = protowire.AppendTag(b, num, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.AsDouble))
	case KindFloat:
		b = protowire.AppendTag(b, num, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(v.AsFloat))
	case KindSint32:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.AsSint32)))
	case KindSint64:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v.AsSint64))
	case KindUint32:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.AsUint32))
	case KindUint64:
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, v.AsUint64)
	case KindMsg:
		msg := v.AsMsg
		if msg == nil {
			msg = &anypb.Any{}
		}
		data, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embedded message: %w", err)
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	default:
		return nil, fmt.Errorf("unknown value kind %d", int(v.Kind))
	}
	return b, nil
}

// Unmarshal decodes a ConfigMessage. Unknown fields are skipped.
func Unmarshal(data []byte) (*ConfigMessage, error) {
	return unmarshalConfig(data, 0)
}

func unmarshalConfig(b []byte, depth int) (*ConfigMessage, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}
	m := NewConfigMessage()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError(n)
		}
		b = b[n:]

		if (num == 1 || num == 2) && typ == protowire.BytesType {
			entry, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError(n)
			}
			b = b[n:]
			key, val, err := splitEntry(entry)
			if err != nil {
				return nil, err
			}
			if num == 1 {
				v, err := unmarshalValue(val)
				if err != nil {
					return nil, fmt.Errorf("option %q: %w", key, err)
				}
				m.Options[key] = v
			} else {
				sub, err := unmarshalConfig(val, depth+1)
				if err != nil {
					return nil, fmt.Errorf("config %q: %w", key, err)
				}
				m.Configs[key] = sub
			}
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, wireError(n)
		}
		b = b[n:]
	}
	return m, nil
}

// splitEntry extracts key and value bytes of a map entry.
func splitEntry(b []byte) (string, []byte, error) {
	var key string
	var val []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, wireError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			key, n = protowire.ConsumeString(b)
		case num == 2 && typ == protowire.BytesType:
			val, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", nil, wireError(n)
		}
		b = b[n:]
	}
	return key, val, nil
}

func unmarshalValue(b []byte) (*Value, error) {
	v := &Value{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError(n)
		}
		b = b[n:]

		kind := Kind(num)
		expected, known := wireTypes[kind]
		if !known || typ != expected {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireError(n)
			}
			b = b[n:]
			continue
		}

		// A later arm replaces an earlier one, as with any oneof.
		*v = Value{Kind: kind}
		switch typ {
		case protowire.BytesType:
			var data []byte
			data, n = protowire.ConsumeBytes(b)
			if n < 0 {
				break
			}
			switch kind {
			case KindString:
				v.AsString = string(data)
			case KindBytes:
				v.AsBytes = append([]byte{}, data...)
			case KindMsg:
				v.AsMsg = &anypb.Any{}
				if err := proto.Unmarshal(data, v.AsMsg); err != nil {
					return nil, fmt.Errorf("%w: embedded message: %v", ErrMalformed, err)
				}
			}
		case protowire.VarintType:
			var x uint64
			x, n = protowire.ConsumeVarint(b)
			switch kind {
			case KindBool:
				v.AsBool = protowire.DecodeBool(x)
			case KindSint32:
				v.AsSint32 = int32(protowire.DecodeZigZag(x & math.MaxUint32))
			case KindSint64:
				v.AsSint64 = protowire.DecodeZigZag(x)
			case KindUint32:
				v.AsUint32 = uint32(x)
			case KindUint64:
				v.AsUint64 = x
			}
		case protowire.Fixed64Type:
			var x uint64
			x, n = protowire.ConsumeFixed64(b)
			v.AsDouble = math.Float64frombits(x)
		case protowire.Fixed32Type:
			var x uint32
			x, n = protowire.ConsumeFixed32(b)
			v.AsFloat = math.Float32frombits(x)
		}
		if n < 0 {
			return nil, wireError(n)
		}
		b = b[n:]
	}
	return v, nil
}

var wireTypes = map[Kind]protowire.Type{
	KindString: protowire.BytesType,
	KindBytes:  protowire.BytesType,
	KindBool:   protowire.VarintType,
	KindDouble: protowire.Fixed64Type,
	KindFloat:  protowire.Fixed32Type,
	KindSint32: protowire.VarintType,
	KindSint64: protowire.VarintType,
	KindUint32: protowire.VarintType,
	KindUint64: protowire.VarintType,
	KindMsg:    protowire.BytesType,
}

func wireError(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
