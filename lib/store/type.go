package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a four character code. It names attribute kinds, object classes,
// message ids and object keys alike. The code is stored so that its most
// significant byte is the first character ('INT4' == 0x494E5434).
type Type uint32

// MakeType builds a Type from a string of up to four characters. Shorter
// strings are padded with spaces, longer strings panic.
func MakeType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseType is the error returning variant of MakeType. It also accepts the
// hex form String produces for non printable codes.
func ParseType(s string) (Type, error) {
	if len(s) == 10 && strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid type code %q: %w", s, err)
		}
		return Type(v), nil
	}
	if len(s) > 4 {
		return 0, fmt.Errorf("type code %q longer than four characters", s)
	}
	s = s + strings.Repeat(" ", 4-len(s))
	return Type(s[0])<<24 | Type(s[1])<<16 | Type(s[2])<<8 | Type(s[3]), nil
}

// String returns the four characters of the code, or a hex literal when the
// code contains non printable bytes.
func (t Type) String() string {
	b := [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(t))
		}
	}
	return string(b[:])
}

// Attribute kinds
const (
	TypeObject       Type = 'O'<<24 | 'B'<<16 | 'J'<<8 | 'E'
	TypeLockedObject Type = 'L'<<24 | 'O'<<16 | 'C'<<8 | 'K'
	TypeResult       Type = 'R'<<24 | 'E'<<16 | 'S'<<8 | 'U'
	TypeAddress      Type = 'A'<<24 | 'D'<<16 | 'D'<<8 | 'R'
	TypeNull         Type = 'N'<<24 | 'U'<<16 | 'L'<<8 | 'L'
	TypeWildCard     Type = '*'<<24 | '*'<<16 | '*'<<8 | '*'
	TypeCString      Type = 'C'<<24 | 'S'<<16 | 'T'<<8 | 'R'
	TypeUCS2String   Type = 'U'<<24 | '2'<<16 | 'S'<<8 | 'T'
	TypeInt          Type = 'I'<<24 | 'N'<<16 | 'T'<<8 | '4'
	TypeLong         Type = 'I'<<24 | 'N'<<16 | 'T'<<8 | '8'
	TypeFloat        Type = 'F'<<24 | 'L'<<16 | 'T'<<8 | '4'
	TypeDouble       Type = 'F'<<24 | 'L'<<16 | 'T'<<8 | '8'
	TypeBool         Type = 'B'<<24 | 'O'<<16 | 'O'<<8 | 'L'
	TypeType         Type = 'T'<<24 | 'Y'<<16 | 'P'<<8 | 'E'
	TypeList         Type = 'L'<<24 | 'I'<<16 | 'S'<<8 | 'T'
	TypeIntVector    Type = 'V'<<24 | 'I'<<16 | 'N'<<8 | '4'
	TypeLongVector   Type = 'V'<<24 | 'I'<<16 | 'N'<<8 | '8'
	TypeFloatVector  Type = 'V'<<24 | 'F'<<16 | 'L'<<8 | '4'
	TypeTypeVector   Type = 'V'<<24 | 'T'<<16 | 'Y'<<8 | 'P'
)

// KeyObjectClass is the key under which New stores the class of an object
const KeyObjectClass Type = 'O'<<24 | 'C'<<16 | 'L'<<8 | 'A'

// IsObject reports whether t is one of the object kinds
func (t Type) IsObject() bool {
	return t == TypeObject || t == TypeResult || t == TypeLockedObject
}
