package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		name  string
		value uint64
	}{
		{"empty", "", 0},
		{"single", "a", 0x3000000000000000},
		{"account", "eosio", 0x5530ea0000000000},
		{"with dot", "eosio.token", 0x5530ea033482a600},
		{"digits", "a12345", 0x3044321400000000},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			n, err := ParseName(tc.name)
			require.NoError(t, err)
			require.Equal(t, tc.value, uint64(n))
			require.Equal(t, tc.name, n.String())
		})
	}
}

func TestParseNameInvalid(t *testing.T) {
	for _, tc := range []struct {
		desc string
		name string
	}{
		{"upper case", "Alice"},
		{"digit out of range", "alice6"},
		{"too long", "aaaaaaaaaaaaaa"},
		{"thirteenth", "aaaaaaaaaaaaz"},
		{"trailing dot", "alice."},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseName(tc.name)
			require.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestNameText(t *testing.T) {
	var n Name
	require.NoError(t, n.UnmarshalText([]byte("evmbridge")))
	text, err := n.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "evmbridge", string(text))
	require.Equal(t, MustName("evmbridge"), n)
}
