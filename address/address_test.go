package address_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
)

func TestDeriveReserved(t *testing.T) {
	eosio := types.MustName("eosio")
	addr := address.DeriveReserved(eosio)
	require.Equal(t, common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbb5530ea0000000000"), addr)
	require.True(t, address.IsReserved(addr))

	name, ok := address.ReverseReserved(addr)
	require.True(t, ok)
	require.Equal(t, eosio, name)

	_, ok = address.ReverseReserved(common.HexToAddress("0x9edf022004846bc987799d552d1b8485b317b7ed"))
	require.False(t, ok)
}

func TestDeriveReservedBijective(t *testing.T) {
	seen := map[common.Address]types.Name{}
	for _, s := range []string{"", "a", "b", "alice", "bob", "evmbridge", "eosio.token", "zzzzzzzzzzzzj"} {
		name := types.MustName(s)
		addr := address.DeriveReserved(name)
		_, dup := seen[addr]
		require.False(t, dup, s)
		seen[addr] = name

		back, ok := address.ReverseReserved(addr)
		require.True(t, ok)
		require.Equal(t, name, back)
	}
}

func TestDeriveContract(t *testing.T) {
	sender := common.HexToAddress("0x2787b98fc4e731d0456b3941f0b3fe2e01439961")
	for nonce := uint64(0); nonce < 300; nonce += 37 {
		require.Equal(t, crypto.CreateAddress(sender, nonce), address.DeriveContract(sender, nonce))
	}
}

func TestNormalize(t *testing.T) {
	addr := common.HexToAddress("0x9edf022004846bc987799d552d1b8485b317b7ed")
	plain := strings.ToLower(addr.Hex())
	checksummed := address.Checksummed(addr)
	require.Len(t, checksummed, 50)

	for _, tc := range []struct {
		desc string
		raw  string
	}{
		{"prefixed", plain},
		{"bare", plain[2:]},
		{"mixed case", addr.Hex()},
		{"checksummed", checksummed},
		{"checksummed bare", checksummed[2:]},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := address.Normalize(tc.raw)
			require.NoError(t, err)
			require.Equal(t, addr, got)
		})
	}
}

func TestNormalizeInvalid(t *testing.T) {
	addr := common.HexToAddress("0x9edf022004846bc987799d552d1b8485b317b7ed")
	checksummed := address.Checksummed(addr)
	last := checksummed[len(checksummed)-1]
	replacement := "0"
	if last == '0' {
		replacement = "1"
	}
	tampered := checksummed[:len(checksummed)-1] + replacement

	for _, tc := range []struct {
		desc string
		raw  string
	}{
		{"empty", ""},
		{"short", "0x9edf02"},
		{"bad checksum", tampered},
		{"not hex", "0x" + strings.Repeat("zz", 20)},
		{"prefix missing on long form", "1x" + checksummed[2:]},
		{"32 bytes", "0x" + strings.Repeat("ab", 32)},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := address.Normalize(tc.raw)
			require.ErrorIs(t, err, address.ErrInvalidAddressFormat)
		})
	}
}

func TestNormalizeRandomAddresses(t *testing.T) {
	f := fuzz.New()
	f.RandSource(rand.NewSource(1001))
	var addrs [100]common.Address
	f.Fuzz(&addrs)
	for _, addr := range addrs {
		for _, encoded := range []string{
			addr.Hex(),
			strings.ToLower(addr.Hex()),
			address.Checksummed(addr),
			address.Checksummed(addr)[2:],
		} {
			got, err := address.Normalize(encoded)
			require.NoError(t, err, encoded)
			require.Equal(t, addr, got)
		}
	}
}
