package types

import (
	"errors"
	"fmt"
)

const (
	nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"
	// MaxNameLength is the maximum length of a native account name.
	MaxNameLength = 13
)

// ErrInvalidName is returned when a string is not a valid native account name.
var ErrInvalidName = errors.New("invalid account name")

// Name is a native ledger account identifier, a base32 encoded string packed into 64 bits.
type Name uint64

func nameSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	}
	return 0, false
}

// ParseName encodes s into a Name.
func ParseName(s string) (Name, error) {
	if len(s) > MaxNameLength {
		return 0, fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, s, MaxNameLength)
	}
	var value uint64
	for i := 0; i < len(s); i++ {
		c, ok := nameSymbol(s[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q has unexpected character %q", ErrInvalidName, s, s[i])
		}
		if i < 12 {
			value |= (c & 0x1f) << (64 - 5*(i+1))
		} else {
			if c > 0x0f {
				return 0, fmt.Errorf("%w: thirteenth character of %q must be in [.1-5a-j]", ErrInvalidName, s)
			}
			value |= c
		}
	}
	n := Name(value)
	if n.String() != s {
		return 0, fmt.Errorf("%w: %q is not in canonical form", ErrInvalidName, s)
	}
	return n, nil
}

// MustName is ParseName that panics on invalid input. Intended for constants and tests.
func MustName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string {
	var buf [MaxNameLength]byte
	tmp := uint64(n)
	for i := 0; i < MaxNameLength; i++ {
		if i == 0 {
			buf[12-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			buf[12-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}
	end := MaxNameLength
	for end > 0 && buf[end-1] == '.' {
		end--
	}
	return string(buf[:end])
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
