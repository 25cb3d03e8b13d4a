// FILE: lixenwraith/optcfg/types.go
package optcfg

import (
	"fmt"
	"mime"
	"slices"
	"strings"
)

// MIME is a media type specification: type/subtype with optional parameters.
type MIME string

// Supported top-level media types.
var mimeTypes = []string{"text", "image", "audio", "video", "application", "multipart", "message"}

// ParseMIME validates s and returns it in canonical form.
func ParseMIME(s string) (MIME, error) {
	if len(s) > 1024 {
		return "", fmt.Errorf("MIME specification too long: %d bytes", len(s))
	}
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		return "", fmt.Errorf("invalid MIME specification: %w", err)
	}
	base, sub, ok := strings.Cut(mediaType, "/")
	if !ok || sub == "" {
		return "", fmt.Errorf("MIME type specification must be 'type/subtype[;param=value;...]'")
	}
	if !slices.Contains(mimeTypes, base) {
		return "", fmt.Errorf("MIME type '%s' not supported", base)
	}
	return MIME(mime.FormatMediaType(mediaType, params)), nil
}

func (m MIME) parts() (string, map[string]string) {
	mediaType, params, err := mime.ParseMediaType(string(m))
	if err != nil {
		return "", nil
	}
	return mediaType, params
}

// Type returns the top-level media type.
func (m MIME) Type() string {
	mt, _ := m.parts()
	base, _, _ := strings.Cut(mt, "/")
	return base
}

// Subtype returns the media subtype.
func (m MIME) Subtype() string {
	mt, _ := m.parts()
	_, sub, _ := strings.Cut(mt, "/")
	return sub
}

// Params returns the parameters, keys lower-cased.
func (m MIME) Params() map[string]string {
	_, params := m.parts()
	return params
}

func (m MIME) String() string { return string(m) }

// Address is an endpoint in protocol://address form.
type Address string

// Supported address transports.
var addressProtocols = []string{"inproc", "ipc", "tcp", "pgm", "epgm", "vmci"}

// ParseAddress validates s. The protocol part is lower-cased.
func ParseAddress(s string) (Address, error) {
	proto, addr, ok := strings.Cut(strings.TrimSpace(s), "://")
	if !ok {
		return "", fmt.Errorf("protocol specification required")
	}
	proto = strings.ToLower(proto)
	if !slices.Contains(addressProtocols, proto) {
		return "", fmt.Errorf("invalid protocol '%s'", proto)
	}
	if addr == "" {
		return "", fmt.Errorf("address required after '%s://'", proto)
	}
	return Address(proto + "://" + addr), nil
}

// Protocol returns the transport name.
func (a Address) Protocol() string {
	proto, _, _ := strings.Cut(string(a), "://")
	return proto
}

// Endpoint returns the part after the protocol separator.
func (a Address) Endpoint() string {
	_, addr, _ := strings.Cut(string(a), "://")
	return addr
}

func (a Address) String() string { return string(a) }
