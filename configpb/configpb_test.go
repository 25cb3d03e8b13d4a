// FILE: lixenwraith/optcfg/configpb/configpb_test.go
package configpb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestValueArms(t *testing.T) {
	tests := []struct {
		name  string
		value *Value
	}{
		{"string", StringValue("hello")},
		{"empty string", StringValue("")},
		{"bytes", BytesValue([]byte{0, 1, 2, 255})},
		{"bool false", BoolValue(false)},
		{"bool true", BoolValue(true)},
		{"double", DoubleValue(math.Pi)},
		{"float", FloatValue(1.5)},
		{"sint32 negative", Sint32Value(-42)},
		{"sint32 min", Sint32Value(math.MinInt32)},
		{"sint64", Sint64Value(math.MinInt64)},
		{"uint32", Uint32Value(math.MaxUint32)},
		{"uint64", Uint64Value(math.MaxUint64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewConfigMessage()
			msg.SetOption("opt", tt.value)

			data, err := msg.Marshal()
			require.NoError(t, err)

			decoded, err := Unmarshal(data)
			require.NoError(t, err)

			got, ok := decoded.Option("opt")
			require.True(t, ok)
			assert.Equal(t, tt.value.Kind, got.Kind)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMessageArm(t *testing.T) {
	list, err := structpb.NewList([]any{"a", "b,c"})
	require.NoError(t, err)

	v, err := MsgValue(list)
	require.NoError(t, err)
	assert.Equal(t, KindMsg, v.Kind)

	msg := NewConfigMessage()
	msg.SetOption("items", v)
	data, err := msg.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	got := decoded.Options["items"]
	require.NotNil(t, got.AsMsg)
	assert.True(t, proto.Equal(v.AsMsg, got.AsMsg))

	out := &structpb.ListValue{}
	require.NoError(t, got.AsMsg.UnmarshalTo(out))
	assert.Equal(t, []any{"a", "b,c"}, out.AsSlice())
}

func TestNestedConfigs(t *testing.T) {
	root := NewConfigMessage()
	root.SetOption("name", StringValue("root"))
	db := root.Sub("db")
	db.SetOption("port", Uint64Value(5432))
	db.Sub("pool").SetOption("size", Sint64Value(-1))

	assert.Same(t, db, root.Sub("db"), "Sub must return the existing message")

	data, err := root.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, "root", decoded.Options["name"].AsString)
	require.Contains(t, decoded.Configs, "db")
	assert.Equal(t, uint64(5432), decoded.Configs["db"].Options["port"].AsUint64)
	assert.Equal(t, int64(-1), decoded.Configs["db"].Configs["pool"].Options["size"].AsSint64)
}

func TestDeterministicEncoding(t *testing.T) {
	build := func(keys ...string) *ConfigMessage {
		m := NewConfigMessage()
		for _, k := range keys {
			m.SetOption(k, StringValue(k))
			m.Sub(k + "_sub").SetOption("x", BoolValue(true))
		}
		return m
	}

	a, err := build("alpha", "beta", "gamma").Marshal()
	require.NoError(t, err)
	b, err := build("gamma", "alpha", "beta").Marshal()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestInteropWithWrapperTypes(t *testing.T) {
	// Field 1 of StringValue and of Value are both a length-delimited string,
	// so a Value holding as_string decodes as a StringValue wrapper.
	data, err := proto.Marshal(wrapperspb.String("interop"))
	require.NoError(t, err)

	v, err := unmarshalValue(data)
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "interop", v.AsString)
}

func TestUnknownFieldsSkipped(t *testing.T) {
	msg := NewConfigMessage()
	msg.SetOption("a", StringValue("x"))
	data, err := msg.Marshal()
	require.NoError(t, err)

	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 99)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.Options["a"].AsString)
}

func TestMalformedInput(t *testing.T) {
	_, err := Unmarshal([]byte{0x0a, 0x05, 0x01})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sint64", KindSint64.String())
	assert.Equal(t, "msg", KindMsg.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
