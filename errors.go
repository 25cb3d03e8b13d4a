// FILE: lixenwraith/optcfg/errors.go
package optcfg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/optcfg/configpb"
)

// Sentinel errors. Every typed error below matches exactly one of them
// through errors.Is.
var (
	ErrConstruction   = errors.New("invalid option declaration")
	ErrParse          = errors.New("malformed option value")
	ErrMissingSection = errors.New("missing configuration section")
	ErrValidation     = errors.New("configuration validation failed")
	ErrProtocol       = errors.New("unsupported wire value")
	ErrUsage          = errors.New("invalid configuration usage")
	// ErrConfigNotFound indicates the configuration file was not found.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// ConstructionError reports a bad option or config declaration.
type ConstructionError struct {
	Name    string
	Message string
}

func (e *ConstructionError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// ParseError reports text that could not be converted to an option value.
type ParseError struct {
	Path string
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q: %v", e.Path, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error          { return e.Err }
func (e *ParseError) Is(target error) bool   { return target == ErrParse }
func (e *ParseError) prependPath(pfx string) { e.Path = joinPath(pfx, e.Path) }

// MissingSectionError reports a required section absent from a text source.
type MissingSectionError struct {
	Path    string
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("%s: section %q not found", e.Path, e.Section)
}

func (e *MissingSectionError) Is(target error) bool   { return target == ErrMissingSection }
func (e *MissingSectionError) prependPath(pfx string) { e.Path = joinPath(pfx, e.Path) }

// ValidationError reports an invalid or missing value with the dotted path of
// the failing member.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *ValidationError) prependPath(pfx string) { e.Path = joinPath(pfx, e.Path) }

// ProtocolError reports a wire value whose arm the option cannot accept, or
// a value that could not be encoded (Err set).
type ProtocolError struct {
	Path string
	Kind configpb.Kind
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: cannot encode value: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: wrong value type: %s", e.Path, e.Kind)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool   { return target == ErrProtocol }
func (e *ProtocolError) prependPath(pfx string) { e.Path = joinPath(pfx, e.Path) }

// UsageError reports an operation the configuration model forbids.
type UsageError struct {
	Path    string
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *UsageError) Is(target error) bool   { return target == ErrUsage }
func (e *UsageError) prependPath(pfx string) { e.Path = joinPath(pfx, e.Path) }

// pathError is implemented by errors that carry a member path.
type pathError interface {
	error
	prependPath(prefix string)
}

// annotate prefixes the path carried by err with prefix. Errors without a
// path pass through unchanged.
func annotate(prefix string, err error) error {
	if err == nil || prefix == "" {
		return err
	}
	var pe pathError
	if errors.As(err, &pe) {
		pe.prependPath(prefix)
	}
	return err
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	}
	return strings.Join([]string{prefix, path}, ".")
}
