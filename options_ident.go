// FILE: lixenwraith/optcfg/options_ident.go
package optcfg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lixenwraith/optcfg/configpb"
)

// UUIDOption holds a UUID. It travels as 16 raw bytes on the wire.
type UUIDOption struct {
	*option[uuid.UUID]
}

// NewUUIDOption declares a UUID option. Default accepts uuid.UUID or its
// string form.
func NewUUIDOption(name, description string, settings ...OptionSetting) (*UUIDOption, error) {
	s := applySettings(settings)
	if str, ok := s.def.(string); ok && s.hasDefault {
		u, err := parseUUID(str)
		if err != nil {
			return nil, &ConstructionError{Name: name, Message: fmt.Sprintf("invalid default: %v", err)}
		}
		s.def = u
	}
	kind := &valueKind[uuid.UUID]{
		desc:   func() string { return "UUID" },
		parse:  parseUUID,
		format: uuid.UUID.String,
		equal:  func(a, b uuid.UUID) bool { return a == b },
		save: func(v uuid.UUID) (*configpb.Value, error) {
			return configpb.BytesValue(v[:]), nil
		},
		load: func(v *configpb.Value) (uuid.UUID, error) {
			switch v.Kind {
			case configpb.KindBytes:
				return uuid.FromBytes(v.AsBytes)
			case configpb.KindString:
				return parseUUID(v.AsString)
			}
			return uuid.Nil, errWrongArm
		},
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &UUIDOption{base}, nil
}

// MIMEOption holds a MIME type specification.
type MIMEOption struct {
	*option[MIME]
}

// NewMIMEOption declares a MIME option.
func NewMIMEOption(name, description string, settings ...OptionSetting) (*MIMEOption, error) {
	kind := &valueKind[MIME]{
		desc:   func() string { return "MIME" },
		parse:  ParseMIME,
		format: MIME.String,
		equal:  func(a, b MIME) bool { return a == b },
		check: func(v MIME) error {
			_, err := ParseMIME(string(v))
			return err
		},
		save: saveString(MIME.String),
		load: stringArm(ParseMIME),
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &MIMEOption{base}, nil
}

// AddressOption holds a protocol://address endpoint.
type AddressOption struct {
	*option[Address]
}

// NewAddressOption declares an endpoint address option.
func NewAddressOption(name, description string, settings ...OptionSetting) (*AddressOption, error) {
	kind := &valueKind[Address]{
		desc:   func() string { return "Address" },
		parse:  ParseAddress,
		format: Address.String,
		equal:  func(a, b Address) bool { return a == b },
		check: func(v Address) error {
			_, err := ParseAddress(string(v))
			return err
		},
		save: saveString(Address.String),
		load: stringArm(ParseAddress),
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &AddressOption{base}, nil
}

// PathOption holds a filesystem path. A leading "{kind}" placeholder refers to
// a location of the directory scheme, e.g. "{logs}/server.log".
type PathOption struct {
	*option[string]
	scheme DirectoryScheme
}

// NewPathOption declares a path option. Use WithScheme to enable placeholders.
func NewPathOption(name, description string, settings ...OptionSetting) (*PathOption, error) {
	s := applySettings(settings)
	scheme := s.scheme
	kind := &valueKind[string]{
		desc:   func() string { return "path" },
		parse:  func(text string) (string, error) { return strings.TrimSpace(text), nil },
		format: func(v string) string { return v },
		equal:  func(a, b string) bool { return a == b },
		check: func(v string) error {
			_, err := resolvePath(scheme, v)
			return err
		},
		save: saveString(func(v string) string { return v }),
		load: stringArm(func(text string) (string, error) { return text, nil }),
	}
	base, err := newOption(name, description, kind, s)
	if err != nil {
		return nil, err
	}
	return &PathOption{option: base, scheme: scheme}, nil
}

// Resolved returns the path with any placeholder expanded.
func (o *PathOption) Resolved() (string, error) {
	v, ok := o.Get()
	if !ok {
		return "", &ValidationError{Path: o.Name(), Message: "no value"}
	}
	p, err := resolvePath(o.scheme, v)
	if err != nil {
		return "", &ValidationError{Path: o.Name(), Message: err.Error()}
	}
	return p, nil
}

func resolvePath(scheme DirectoryScheme, p string) (string, error) {
	if !strings.HasPrefix(p, "{") {
		return p, nil
	}
	end := strings.Index(p, "}")
	if end < 0 {
		return "", fmt.Errorf("unterminated directory placeholder in '%s'", p)
	}
	if scheme == nil {
		return "", fmt.Errorf("directory placeholder used without directory scheme")
	}
	base, err := scheme.Resolve(DirKind(p[1:end]))
	if err != nil {
		return "", err
	}
	rest := strings.TrimLeft(p[end+1:], `/\`)
	if rest == "" {
		return base, nil
	}
	return filepath.Join(base, filepath.FromSlash(rest)), nil
}
