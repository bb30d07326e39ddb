package model

import (
	"bytes"
	"encoding/base32"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxPrincipalLength is the largest principal the ledger accepts, in bytes.
const MaxPrincipalLength = 29

// ErrInvalidPrincipal is returned when principal text fails to parse.
var ErrInvalidPrincipal = errors.New("invalid principal")

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is an opaque caller identity. Two principals are the same
// identity exactly when their bytes are equal; the textual form is derived
// from the bytes and is never compared directly.
type Principal struct {
	raw string
}

// AnonymousPrincipal is the identity of an unauthenticated caller.
var AnonymousPrincipal = Principal{raw: "\x04"}

// PrincipalFromBytes wraps raw principal bytes.
func PrincipalFromBytes(b []byte) (Principal, error) {
	if len(b) > MaxPrincipalLength {
		return Principal{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidPrincipal, len(b), MaxPrincipalLength)
	}
	return Principal{raw: string(b)}, nil
}

// ParsePrincipal decodes the canonical textual form: base32 of a big-endian
// CRC32 checksum followed by the raw bytes, lowercase, in dash-separated
// groups of five.
func ParsePrincipal(text string) (Principal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Principal{}, fmt.Errorf("%w: empty", ErrInvalidPrincipal)
	}
	decoded, err := principalEncoding.DecodeString(strings.ToUpper(strings.ReplaceAll(text, "-", "")))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %q: %v", ErrInvalidPrincipal, text, err)
	}
	if len(decoded) < 4 {
		return Principal{}, fmt.Errorf("%w: %q is too short", ErrInvalidPrincipal, text)
	}
	sum, body := decoded[:4], decoded[4:]
	if binary.BigEndian.Uint32(sum) != crc32.ChecksumIEEE(body) {
		return Principal{}, fmt.Errorf("%w: %q has a bad checksum", ErrInvalidPrincipal, text)
	}
	p, err := PrincipalFromBytes(body)
	if err != nil {
		return Principal{}, err
	}
	if p.String() != strings.ToLower(text) {
		return Principal{}, fmt.Errorf("%w: %q is not in canonical form", ErrInvalidPrincipal, text)
	}
	return p, nil
}

// MustParsePrincipal is like ParsePrincipal but panics on error.
func MustParsePrincipal(text string) Principal {
	p, err := ParsePrincipal(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Bytes returns a copy of the raw principal bytes.
func (p Principal) Bytes() []byte {
	return []byte(p.raw)
}

// Equal reports whether p and other are the same identity (byte-wise).
func (p Principal) Equal(other Principal) bool {
	return bytes.Equal([]byte(p.raw), []byte(other.raw))
}

// IsZero reports whether p holds no bytes.
func (p Principal) IsZero() bool {
	return p.raw == ""
}

// IsAnonymous reports whether p is the anonymous principal.
func (p Principal) IsAnonymous() bool {
	return p.Equal(AnonymousPrincipal)
}

// String renders the canonical textual form.
func (p Principal) String() string {
	buf := make([]byte, 4+len(p.raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE([]byte(p.raw)))
	copy(buf[4:], p.raw)
	enc := strings.ToLower(principalEncoding.EncodeToString(buf))

	var sb strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := min(i+5, len(enc))
		sb.WriteString(enc[i:end])
	}
	return sb.String()
}

// Short renders an abbreviated form for tables.
func (p Principal) Short() string {
	s := p.String()
	if len(s) <= 20 {
		return s
	}
	return s[:8] + "..." + s[len(s)-8:]
}

// MarshalJSON encodes the principal as its textual form.
func (p Principal) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a principal from its textual form.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePrincipal(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler (used by TOML profiles).
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
