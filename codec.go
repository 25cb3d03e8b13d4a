// FILE: lixenwraith/optcfg/codec.go
package optcfg

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodecRegistry converts values to and from their canonical string form.
type CodecRegistry interface {
	ToString(t reflect.Type, v any) (string, error)
	FromString(t reflect.Type, s string) (any, error)
	HasCodec(t reflect.Type) bool
}

// Codec is the string conversion pair for one Go type. Name is the short type
// name used for typed items in mixed lists ("int:42").
type Codec struct {
	Name       string
	Type       reflect.Type
	ToString   func(v any) (string, error)
	FromString func(s string) (any, error)
}

// NewCodec builds a Codec from typed conversion functions.
func NewCodec[T any](name string, to func(T) string, from func(string) (T, error)) Codec {
	return Codec{
		Name: name,
		Type: TypeOf[T](),
		ToString: func(v any) (string, error) {
			tv, ok := v.(T)
			if !ok {
				return "", fmt.Errorf("codec %s: unexpected value type %T", name, v)
			}
			return to(tv), nil
		},
		FromString: func(s string) (any, error) {
			return from(s)
		},
	}
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Registry is the standard CodecRegistry. It is safe for concurrent use.
type Registry struct {
	byType map[reflect.Type]*Codec
	byName map[string]*Codec
	mutex  sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*Codec),
		byName: make(map[string]*Codec),
	}
}

// Register adds c, replacing any codec previously registered for its type.
// Names must be unique across types.
func (r *Registry) Register(c Codec) error {
	if c.Type == nil || c.ToString == nil || c.FromString == nil {
		return &ConstructionError{Name: c.Name, Message: "incomplete codec"}
	}
	if c.Name == "" {
		return &ConstructionError{Message: fmt.Sprintf("codec for %s has no name", c.Type)}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if other, exists := r.byName[c.Name]; exists && other.Type != c.Type {
		return &ConstructionError{Name: c.Name, Message: fmt.Sprintf("codec name already used by %s", other.Type)}
	}
	if old, exists := r.byType[c.Type]; exists {
		delete(r.byName, old.Name)
	}
	r.byType[c.Type] = &c
	r.byName[c.Name] = &c
	return nil
}

// Lookup returns the codec registered for t.
func (r *Registry) Lookup(t reflect.Type) (*Codec, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	c, ok := r.byType[t]
	return c, ok
}

// LookupName returns the codec registered under name.
func (r *Registry) LookupName(name string) (*Codec, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the registered codec names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) HasCodec(t reflect.Type) bool {
	_, ok := r.Lookup(t)
	return ok
}

func (r *Registry) ToString(t reflect.Type, v any) (string, error) {
	c, ok := r.Lookup(t)
	if !ok {
		return "", fmt.Errorf("no codec registered for type %s", t)
	}
	return c.ToString(v)
}

func (r *Registry) FromString(t reflect.Type, s string) (any, error) {
	c, ok := r.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("no codec registered for type %s", t)
	}
	return c.FromString(s)
}

// DefaultCodecs holds the built-in codecs and is used by options that are not
// given a registry explicitly.
var DefaultCodecs = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Codec{
		NewCodec("str", func(s string) string { return s }, func(s string) (string, error) { return s, nil }),
		NewCodec("int", strconv.Itoa, func(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) }),
		NewCodec("int64", formatInt, parseInt),
		NewCodec("uint64", formatUint, parseUint),
		NewCodec("float", formatFloat, parseFloat),
		NewCodec("bool", formatBool, parseBool),
		NewCodec("decimal", decimal.Decimal.String, parseDecimal),
		NewCodec("uuid", uuid.UUID.String, parseUUID),
		NewCodec("mime", MIME.String, ParseMIME),
		NewCodec("address", Address.String, ParseAddress),
		NewCodec("duration", time.Duration.String, parseDuration),
		NewCodec("ip", net.IP.String, parseIP),
		NewCodec("url", (*url.URL).String, parseURL),
	} {
		if err := r.Register(c); err != nil {
			panic(fmt.Sprintf("built-in codec registration failed: %v", err))
		}
	}
	return r
}

// encodeValue converts v through the registry entry for T.
func encodeValue[T any](r CodecRegistry, v T) (string, error) {
	return r.ToString(TypeOf[T](), v)
}

// decodeValue parses s through the registry entry for T.
func decodeValue[T any](r CodecRegistry, s string) (T, error) {
	var zero T
	v, err := r.FromString(TypeOf[T](), s)
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("codec returned %T, expected %s", v, TypeOf[T]())
	}
	return tv, nil
}

func formatInt(i int64) string   { return strconv.FormatInt(i, 10) }
func formatUint(u uint64) string { return strconv.FormatUint(u, 10) }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func parseInt(s string) (int64, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, unwrapNumError(err)
	}
	return i, nil
}

func parseUint(s string) (uint64, error) {
	u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, unwrapNumError(err)
	}
	return u, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, unwrapNumError(err)
	}
	return f, nil
}

func unwrapNumError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "on", "y", "1":
		return true, nil
	case "no", "false", "off", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("value '%s' is not a valid bool string constant", s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if len(s) > 256 {
		return decimal.Decimal{}, fmt.Errorf("decimal too long: %d bytes", len(s))
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(s))
}

func parseIP(s string) (net.IP, error) {
	s = strings.TrimSpace(s)
	if len(s) > 45 { // Max IPv6 length
		return nil, fmt.Errorf("invalid IP length: %d", len(s))
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	return ip, nil
}

func parseURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2048 {
		return nil, fmt.Errorf("URL too long: %d bytes", len(s))
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	return u, nil
}

// EnumCodec builds a codec for an enumerated type whose members are listed
// explicitly. Text form is the lower-cased member name; parsing ignores case.
func EnumCodec[E interface {
	comparable
	fmt.Stringer
}](name string, members ...E) Codec {
	byName := enumIndex(members)
	return NewCodec(name,
		func(e E) string { return strings.ToLower(e.String()) },
		func(s string) (E, error) { return lookupEnum(byName, s) },
	)
}

func enumIndex[E fmt.Stringer](members []E) map[string]E {
	byName := make(map[string]E, len(members))
	for _, m := range members {
		byName[strings.ToLower(m.String())] = m
	}
	return byName
}

func lookupEnum[E any](byName map[string]E, s string) (E, error) {
	if e, ok := byName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return e, nil
	}
	var zero E
	return zero, fmt.Errorf("illegal value '%s'", s)
}
