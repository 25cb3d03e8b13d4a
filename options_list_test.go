// FILE: lixenwraith/optcfg/options_list_test.go
package optcfg

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/optcfg/configpb"
)

// TestListOption tests typed list options
func TestListOption(t *testing.T) {
	t.Run("DefaultIsCopied", func(t *testing.T) {
		def := []string{"a", "b"}
		tags := Must(NewListOption[string]("tags", "Tags", Default(def)))

		require.NoError(t, tags.Append("c"))
		assert.Equal(t, []string{"a", "b", "c"}, tags.Value())

		got, ok := tags.Default()
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, got)

		def[0] = "changed"
		got, _ = tags.Default()
		assert.Equal(t, "a", got[0], "default must not alias the caller's slice")
	})

	t.Run("ClearRestoresEqualCopy", func(t *testing.T) {
		tags := Must(NewListOption[string]("tags", "Tags", Default([]string{"a", "b"})))
		require.NoError(t, tags.Set([]string{"x"}))
		tags.Clear(true)
		assert.True(t, tags.IsDefault())

		value := tags.Value()
		value[0] = "z"
		def, _ := tags.Default()
		assert.Equal(t, []string{"a", "b"}, def)
	})

	t.Run("TextRoundTrip", func(t *testing.T) {
		ports := Must(NewListOption[int64]("ports", "Ports"))
		require.NoError(t, ports.LoadString("80, 443 ,, 8080"))
		assert.Equal(t, []int64{80, 443, 8080}, ports.Value())
		assert.Equal(t, "80,443,8080", ports.AsString())
		assert.Equal(t, "ports = 80, 443, 8080\n", ports.GetConfig(true))
		assert.Equal(t, "list [int64]", ports.TypeDescription())
	})

	t.Run("InvalidItem", func(t *testing.T) {
		ports := Must(NewListOption[int64]("ports", "Ports"))
		err := ports.LoadString("80, http")
		assert.ErrorIs(t, err, ErrParse)
		assert.Contains(t, err.Error(), "item[1]")
	})

	t.Run("Escaping", func(t *testing.T) {
		items := []string{`a,b`, `back\slash`, "two\nlines"}
		opt := Must(NewListOption[string]("items", ""))
		require.NoError(t, opt.Set(items))
		assert.Equal(t, `a\,b,back\\slash,two\nlines`, opt.AsString())

		other := Must(NewListOption[string]("items", ""))
		require.NoError(t, other.LoadString(opt.AsString()))
		assert.Equal(t, items, other.Value())
	})

	t.Run("WhitespaceAndEmptyItems", func(t *testing.T) {
		items := []string{" padded ", "", "\ttab", "nbsp\u00a0", "b"}
		opt := Must(NewListOption[string]("items", ""))
		require.NoError(t, opt.Set(items))
		assert.Equal(t, `\spadded\s,\0,\ttab,nbsp\u{a0},b`, opt.AsString())

		other := Must(NewListOption[string]("items", ""))
		require.NoError(t, other.LoadString(opt.AsString()))
		assert.Equal(t, items, other.Value())

		src, err := ParseINIString("[s]\n" + opt.GetConfig(true))
		require.NoError(t, err)
		text, _, err := src.Value("s", "items")
		require.NoError(t, err)
		loaded := Must(NewListOption[string]("items", ""))
		require.NoError(t, loaded.LoadString(text))
		assert.Equal(t, items, loaded.Value())
	})

	t.Run("LongListUsesNewlines", func(t *testing.T) {
		items := []string{
			strings.Repeat("a", 30),
			strings.Repeat("b", 30),
			strings.Repeat("c", 30),
		}
		opt := Must(NewListOption[string]("items", ""))
		require.NoError(t, opt.Set(items))

		rendered := opt.GetConfig(true)
		assert.Equal(t, "items = \n   "+items[0]+"\n   "+items[1]+"\n   "+items[2]+"\n", rendered)

		src, err := ParseINIString("[s]\n" + rendered)
		require.NoError(t, err)
		text, _, err := src.Value("s", "items")
		require.NoError(t, err)

		loaded := Must(NewListOption[string]("items", ""))
		require.NoError(t, loaded.LoadString(text))
		assert.Equal(t, items, loaded.Value())
	})

	t.Run("ExplicitSeparator", func(t *testing.T) {
		opt := Must(NewListOption[string]("paths", "", Separator(";")))
		require.NoError(t, opt.LoadString("a;b\\;c; d"))
		assert.Equal(t, []string{"a", "b;c", "d"}, opt.Value())
		assert.Equal(t, ";", opt.Separator())
	})

	t.Run("Durations", func(t *testing.T) {
		opt := Must(NewListOption[time.Duration]("timeouts", ""))
		require.NoError(t, opt.LoadString("1s, 2m"))
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Minute}, opt.Value())
	})

	t.Run("NoCodec", func(t *testing.T) {
		_, err := NewListOption[struct{ A int }]("bad", "")
		assert.ErrorIs(t, err, ErrConstruction)
	})
}

// TestListWire tests the string and message arms of list values
func TestListWire(t *testing.T) {
	t.Run("StringArm", func(t *testing.T) {
		opt := Must(NewListOption[string]("tags", ""))
		require.NoError(t, opt.Set([]string{"a", "b"}))
		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))

		v, _ := msg.Option("tags")
		assert.Equal(t, configpb.KindString, v.Kind)
		assert.Equal(t, "a,b", v.AsString)
	})

	t.Run("MessageArmForEscapedItems", func(t *testing.T) {
		items := []string{"a,b", "c"}
		opt := Must(NewListOption[string]("tags", ""))
		require.NoError(t, opt.Set(items))
		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))

		v, _ := msg.Option("tags")
		assert.Equal(t, configpb.KindMsg, v.Kind)

		data, err := msg.Marshal()
		require.NoError(t, err)
		decoded, err := configpb.Unmarshal(data)
		require.NoError(t, err)

		loaded := Must(NewListOption[string]("tags", ""))
		require.NoError(t, loaded.LoadProto(decoded))
		assert.Equal(t, items, loaded.Value())
	})

	t.Run("MessageArmKeepsItemsExact", func(t *testing.T) {
		tests := []struct {
			name  string
			sep   string
			items []string
		}{
			{"Padded", "", []string{" padded ", "b"}},
			{"EmptyItem", "", []string{"a", ""}},
			{"OnlyEmpty", "", []string{""}},
			{"SeparatorInItem", ";", []string{"a;b", "c"}},
			{"UnicodeSpace", "", []string{"x\u00a0"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				opt := Must(NewListOption[string]("tags", "", Separator(tt.sep)))
				require.NoError(t, opt.Set(tt.items))
				msg := configpb.NewConfigMessage()
				require.NoError(t, opt.SaveProto(msg))

				v, _ := msg.Option("tags")
				assert.Equal(t, configpb.KindMsg, v.Kind)

				data, err := msg.Marshal()
				require.NoError(t, err)
				decoded, err := configpb.Unmarshal(data)
				require.NoError(t, err)

				loaded := Must(NewListOption[string]("tags", "", Separator(tt.sep)))
				require.NoError(t, loaded.LoadProto(decoded))
				assert.Equal(t, tt.items, loaded.Value())
			})
		}
	})

	t.Run("WrongArm", func(t *testing.T) {
		msg := configpb.NewConfigMessage()
		msg.SetOption("tags", configpb.BoolValue(true))
		opt := Must(NewListOption[string]("tags", ""))
		assert.ErrorIs(t, opt.LoadProto(msg), ErrProtocol)
	})
}

// TestMixedListOption tests lists with items of several types
func TestMixedListOption(t *testing.T) {
	types := []reflect.Type{TypeOf[int64](), TypeOf[string](), TypeOf[bool]()}

	t.Run("TypedItems", func(t *testing.T) {
		opt := Must(NewMixedListOption("mixed", "", types))
		require.NoError(t, opt.LoadString("int64:5, str:hello, bool:yes"))
		assert.Equal(t, []any{int64(5), "hello", true}, opt.Value())
		assert.Equal(t, "int64:5,str:hello,bool:yes", opt.AsString())
		assert.Equal(t, "list [int64, str, bool]", opt.TypeDescription())
	})

	t.Run("PaddedStrings", func(t *testing.T) {
		value := []any{" padded ", int64(1), ""}
		opt := Must(NewMixedListOption("mixed", "", types))
		require.NoError(t, opt.Set(value))
		assert.Equal(t, `str: padded\s,int64:1,str:`, opt.AsString())

		other := Must(NewMixedListOption("mixed", "", types))
		require.NoError(t, other.LoadString(opt.AsString()))
		assert.Equal(t, value, other.Value())

		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))
		loaded := Must(NewMixedListOption("mixed", "", types))
		require.NoError(t, loaded.LoadProto(msg))
		assert.Equal(t, value, loaded.Value())
	})

	t.Run("SingleTypeNeedsNoPrefix", func(t *testing.T) {
		opt := Must(NewMixedListOption("numbers", "", types[:1]))
		require.NoError(t, opt.LoadString("1,2"))
		assert.Equal(t, []any{int64(1), int64(2)}, opt.Value())
	})

	t.Run("Rejections", func(t *testing.T) {
		opt := Must(NewMixedListOption("mixed", "", types))
		assert.ErrorIs(t, opt.LoadString("float:1.5"), ErrParse)
		assert.ErrorIs(t, opt.LoadString("5"), ErrParse)
		assert.ErrorIs(t, opt.Set([]any{1.5}), ErrValidation)

		_, err := NewMixedListOption("empty", "", nil)
		assert.ErrorIs(t, err, ErrConstruction)
	})
}

// TestRecordOption tests struct values written as field:value items
func TestRecordOption(t *testing.T) {
	type endpoint struct {
		Host    string `config:"host"`
		Port    int
		Timeout time.Duration `config:"timeout,omitempty"`
	}

	opt := Must(NewRecordOption[endpoint]("primary", "Primary endpoint"))
	assert.Equal(t, []string{"host", "port", "timeout"}, opt.Fields())
	assert.Equal(t, "record, list of field:value items\nFields: host, port, timeout", opt.TypeDescription())

	require.NoError(t, opt.LoadString("host:db.local, port:5432, timeout:2s"))
	assert.Equal(t, endpoint{Host: "db.local", Port: 5432, Timeout: 2 * time.Second}, opt.Value())
	assert.Equal(t, "host:db.local,port:5432,timeout:2s", opt.AsString())

	rendered := opt.GetConfig(false)
	assert.Contains(t, rendered, "; Type: record, list of field:value items\n; Fields: host, port, timeout\n")

	assert.ErrorIs(t, opt.LoadString("user:admin"), ErrParse)
	assert.ErrorIs(t, opt.LoadString("host"), ErrParse)

	_, err := NewRecordOption[int]("bad", "")
	assert.ErrorIs(t, err, ErrConstruction)
}
