// FILE: lixenwraith/optcfg/options_test.go
package optcfg

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lixenwraith/optcfg/configpb"
)

type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelError
)

func (l logLevel) String() string {
	switch l {
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return "INFO"
	case levelError:
		return "ERROR"
	}
	return fmt.Sprintf("logLevel(%d)", int(l))
}

type permission uint8

const (
	permRead permission = 1 << iota
	permWrite
	permExec
)

func (p permission) String() string {
	switch p {
	case permRead:
		return "READ"
	case permWrite:
		return "WRITE"
	case permExec:
		return "EXEC"
	}
	return fmt.Sprintf("permission(%d)", uint8(p))
}

// TestEnumOption tests enumerated values
func TestEnumOption(t *testing.T) {
	members := []logLevel{levelDebug, levelInfo, levelError}

	t.Run("Basic", func(t *testing.T) {
		opt := Must(NewEnumOption("level", "Log level", members, Default(levelInfo)))
		assert.Equal(t, "enum [debug, info, error]", opt.TypeDescription())
		assert.Equal(t, "info", opt.AsString())

		require.NoError(t, opt.LoadString("ERROR"))
		assert.Equal(t, levelError, opt.Value())

		err := opt.LoadString("verbose")
		assert.ErrorIs(t, err, ErrParse)
		assert.Contains(t, err.Error(), "illegal value 'verbose'")
	})

	t.Run("Allowed", func(t *testing.T) {
		opt := Must(NewEnumOption("level", "", members, Allowed(levelInfo, levelError)))
		assert.Equal(t, []logLevel{levelInfo, levelError}, opt.Allowed())
		assert.ErrorIs(t, opt.LoadString("debug"), ErrParse)
		assert.ErrorIs(t, opt.Set(levelDebug), ErrValidation)

		_, err := NewEnumOption("level", "", members, Allowed("info"))
		assert.ErrorIs(t, err, ErrConstruction)
	})

	t.Run("Wire", func(t *testing.T) {
		opt := Must(NewEnumOption("level", "", members))
		require.NoError(t, opt.Set(levelDebug))
		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))
		v, _ := msg.Option("level")
		assert.Equal(t, "debug", v.AsString)
	})
}

// TestFlagOption tests bit set values
func TestFlagOption(t *testing.T) {
	members := []permission{permRead, permWrite, permExec}
	opt := Must(NewFlagOption("mode", "Access mode", members, Default(permRead)))
	assert.Equal(t, "flag [read, write, exec]", opt.TypeDescription())

	require.NoError(t, opt.LoadString("read | write"))
	assert.Equal(t, permRead|permWrite, opt.Value())
	assert.Equal(t, "read | write", opt.AsString())

	require.NoError(t, opt.LoadString("exec, read"))
	assert.Equal(t, permRead|permExec, opt.Value())

	assert.ErrorIs(t, opt.LoadString("read | delete"), ErrParse)
	assert.ErrorIs(t, opt.Set(permission(8)), ErrValidation)

	msg := configpb.NewConfigMessage()
	require.NoError(t, opt.SaveProto(msg))
	v, _ := msg.Option("mode")
	assert.Equal(t, configpb.KindUint64, v.Kind)
	assert.Equal(t, uint64(permRead|permExec), v.AsUint64)

	_, err := NewFlagOption[permission]("mode", "", nil)
	assert.ErrorIs(t, err, ErrConstruction)
}

// TestIdentifierOptions tests UUID, MIME and address options
func TestIdentifierOptions(t *testing.T) {
	t.Run("UUID", func(t *testing.T) {
		id := uuid.New()
		opt := Must(NewUUIDOption("agent", "", Default(id.String())))
		assert.Equal(t, id, opt.Value())
		assert.ErrorIs(t, opt.LoadString("not-a-uuid"), ErrParse)

		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))
		v, _ := msg.Option("agent")
		assert.Equal(t, configpb.KindBytes, v.Kind)
		assert.Equal(t, id[:], v.AsBytes)

		loaded := Must(NewUUIDOption("agent", ""))
		require.NoError(t, loaded.LoadProto(msg))
		assert.Equal(t, id, loaded.Value())
	})

	t.Run("MIME", func(t *testing.T) {
		opt := Must(NewMIMEOption("content", ""))
		require.NoError(t, opt.LoadString("text/plain;charset=UTF-8"))
		assert.Equal(t, MIME("text/plain; charset=UTF-8"), opt.Value())
		assert.Equal(t, "text", opt.Value().Type())
		assert.Equal(t, "plain", opt.Value().Subtype())
		assert.Equal(t, map[string]string{"charset": "UTF-8"}, opt.Value().Params())

		assert.ErrorIs(t, opt.LoadString("model/vrml"), ErrParse)
		assert.ErrorIs(t, opt.LoadString("text"), ErrParse)
		assert.ErrorIs(t, opt.Set(MIME("garbage")), ErrValidation)
	})

	t.Run("Address", func(t *testing.T) {
		opt := Must(NewAddressOption("endpoint", ""))
		require.NoError(t, opt.LoadString("TCP://127.0.0.1:5000"))
		assert.Equal(t, Address("tcp://127.0.0.1:5000"), opt.Value())
		assert.Equal(t, "tcp", opt.Value().Protocol())
		assert.Equal(t, "127.0.0.1:5000", opt.Value().Endpoint())

		assert.ErrorIs(t, opt.LoadString("udp://127.0.0.1"), ErrParse)
		assert.ErrorIs(t, opt.LoadString("127.0.0.1"), ErrParse)
	})
}

// TestPathOption tests directory placeholders in paths
func TestPathOption(t *testing.T) {
	scheme := newDirectories(platformEnv{
		goos:    "linux",
		getenv:  func(string) string { return "" },
		userDir: "/home/user",
		cwd:     "/work",
	}, "app", "", false)

	opt := Must(NewPathOption("log_file", "Log file", WithScheme(scheme), Default("{logs}/app.log")))
	resolved, err := opt.Resolved()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/app/app.log", resolved)

	require.NoError(t, opt.LoadString("/tmp/app.log"))
	resolved, err = opt.Resolved()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app.log", resolved)

	assert.ErrorIs(t, opt.LoadString("{nowhere}/app.log"), ErrParse)
	assert.ErrorIs(t, opt.Set("{logs/app.log"), ErrValidation)

	_, err = NewPathOption("log_file", "", Default("{logs}/app.log"))
	assert.ErrorIs(t, err, ErrConstruction, "placeholders need a directory scheme")
}

// TestExprOption tests HCL expression values
func TestExprOption(t *testing.T) {
	opt := Must(NewExprOption("filter", "Admission filter"))
	require.NoError(t, opt.LoadString("port > 1024 && enabled"))
	assert.Equal(t, []string{"enabled", "port"}, opt.Variables())

	ctx := &hcl.EvalContext{Variables: map[string]cty.Value{
		"port":    cty.NumberIntVal(8080),
		"enabled": cty.True,
	}}
	val, err := opt.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, val.True())

	var admitted bool
	require.NoError(t, opt.EvaluateInto(ctx, &admitted))
	assert.True(t, admitted)

	_, err = opt.Evaluate(nil)
	assert.Error(t, err, "unknown variables must fail evaluation")

	assert.ErrorIs(t, opt.LoadString("port >"), ErrParse)
	assert.Equal(t, "port > 1024 && enabled", opt.Value())

	empty := Must(NewExprOption("other", ""))
	_, err = empty.Expression()
	assert.ErrorIs(t, err, ErrValidation)
}

// TestCodeOption tests HCL code blocks and their text round-trip
func TestCodeOption(t *testing.T) {
	type rule struct {
		Name  string `hcl:"name,label"`
		Limit int    `hcl:"limit"`
	}
	type ruleSet struct {
		Rules []rule `hcl:"rule,block"`
	}

	code := "rule \"api\" {\n  limit = 5\n}"
	opt := Must(NewCodeOption("rules", "Rate limit rules"))
	require.NoError(t, opt.Set(code))

	rendered := opt.GetConfig(true)
	assert.Equal(t, "rules = | rule \"api\" {\n   |   limit = 5\n   | }\n", rendered)

	src, err := ParseINIString("[limits]\n" + rendered)
	require.NoError(t, err)
	text, _, err := src.Value("limits", "rules")
	require.NoError(t, err)

	loaded := Must(NewCodeOption("rules", ""))
	require.NoError(t, loaded.LoadString(text))
	assert.Equal(t, code, loaded.Value())

	var rs ruleSet
	require.NoError(t, loaded.Decode(nil, &rs))
	assert.Equal(t, []rule{{Name: "api", Limit: 5}}, rs.Rules)

	assert.ErrorIs(t, loaded.LoadString("rule {"), ErrParse)
}

// TestMessageOption tests protobuf message values
func TestMessageOption(t *testing.T) {
	opt := Must(NewMessageOption("timeout", "Request timeout", "google.protobuf.Duration"))
	assert.Equal(t, "protobuf [google.protobuf.Duration]", opt.TypeDescription())
	assert.Equal(t, "google.protobuf.Duration", opt.MessageName())

	require.NoError(t, opt.LoadString(`"1.500s"`))
	assert.True(t, proto.Equal(durationpb.New(1500*time.Millisecond), opt.Value()))

	other := Must(NewMessageOption("timeout", "", "google.protobuf.Duration"))
	require.NoError(t, other.LoadString(opt.AsString()))
	assert.True(t, proto.Equal(opt.Value(), other.Value()))

	t.Run("Wire", func(t *testing.T) {
		msg := configpb.NewConfigMessage()
		require.NoError(t, opt.SaveProto(msg))
		data, err := msg.Marshal()
		require.NoError(t, err)
		decoded, err := configpb.Unmarshal(data)
		require.NoError(t, err)

		loaded := Must(NewMessageOption("timeout", "", "google.protobuf.Duration"))
		require.NoError(t, loaded.LoadProto(decoded))
		assert.True(t, proto.Equal(opt.Value(), loaded.Value()))
	})

	t.Run("Isolation", func(t *testing.T) {
		d := durationpb.New(time.Second)
		require.NoError(t, other.Set(d))
		d.Seconds = 99
		assert.Equal(t, int64(1), other.Value().(*durationpb.Duration).GetSeconds())
	})

	t.Run("Rejections", func(t *testing.T) {
		assert.ErrorIs(t, opt.Set(wrapperspb.String("x")), ErrValidation)
		assert.ErrorIs(t, opt.LoadString("{not json"), ErrParse)

		_, err := NewMessageOption("m", "", "no.such.Message")
		assert.ErrorIs(t, err, ErrConstruction)
	})
}
