// FILE: lixenwraith/optcfg/options_message.go
package optcfg

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/lixenwraith/optcfg/configpb"
)

// MessageRegistry creates protobuf messages by fully qualified name.
type MessageRegistry interface {
	CreateMessage(name string) (proto.Message, error)
	IsRegistered(name string) bool
}

// TypesRegistry adapts protoregistry.Types to MessageRegistry.
type TypesRegistry struct {
	types *protoregistry.Types
}

// NewTypesRegistry wraps types, or the global registry when types is nil.
func NewTypesRegistry(types *protoregistry.Types) *TypesRegistry {
	if types == nil {
		types = protoregistry.GlobalTypes
	}
	return &TypesRegistry{types: types}
}

func (r *TypesRegistry) CreateMessage(name string) (proto.Message, error) {
	mt, err := r.types.FindMessageByName(protoreflect.FullName(name))
	if err != nil {
		return nil, fmt.Errorf("message type %q: %w", name, err)
	}
	return mt.New().Interface(), nil
}

func (r *TypesRegistry) IsRegistered(name string) bool {
	_, err := r.types.FindMessageByName(protoreflect.FullName(name))
	return err == nil
}

// MessageOption holds a protobuf message of one declared type. The text form
// is protobuf JSON on a single line; the wire form uses the message arm.
type MessageOption struct {
	*option[proto.Message]
	messageName string
	registry    MessageRegistry
}

// NewMessageOption declares an option holding messages of type messageName.
func NewMessageOption(name, description, messageName string, settings ...OptionSetting) (*MessageOption, error) {
	s := applySettings(settings)
	registry := s.messages
	if registry == nil {
		registry = NewTypesRegistry(nil)
	}
	if !registry.IsRegistered(messageName) {
		return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("message type %q is not registered", messageName)}
	}

	parse := func(text string) (proto.Message, error) {
		msg, err := registry.CreateMessage(messageName)
		if err != nil {
			return nil, err
		}
		if err := protojson.Unmarshal([]byte(text), msg); err != nil {
			return nil, err
		}
		return msg, nil
	}
	format := func(v proto.Message) string {
		data, err := protojson.MarshalOptions{Multiline: false}.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}

	kind := &valueKind[proto.Message]{
		desc:   func() string { return "protobuf [" + messageName + "]" },
		parse:  parse,
		format: format,
		equal:  proto.Equal,
		clone:  func(v proto.Message) proto.Message { return proto.Clone(v) },
		check: func(v proto.Message) error {
			if v == nil {
				return fmt.Errorf("nil message")
			}
			if got := string(v.ProtoReflect().Descriptor().FullName()); got != messageName {
				return fmt.Errorf("message type %q not allowed, expected %q", got, messageName)
			}
			return nil
		},
		save: func(v proto.Message) (*configpb.Value, error) {
			return configpb.MsgValue(v)
		},
		load: func(v *configpb.Value) (proto.Message, error) {
			switch v.Kind {
			case configpb.KindMsg:
				if v.AsMsg == nil {
					return nil, errWrongArm
				}
				msg, err := registry.CreateMessage(messageName)
				if err != nil {
					return nil, err
				}
				if err := v.AsMsg.UnmarshalTo(msg); err != nil {
					return nil, err
				}
				return msg, nil
			case configpb.KindString:
				return parse(v.AsString)
			}
			return nil, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &MessageOption{option: base, messageName: messageName, registry: registry}, nil
}

// MessageName returns the declared message type.
func (o *MessageOption) MessageName() string { return o.messageName }
