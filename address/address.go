// Package address maps native account names onto EVM addresses and back.
package address

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

const (
	// ReservedPrefixLength is the number of leading bytes shared by all reserved addresses.
	ReservedPrefixLength = common.AddressLength - 8
	// ChecksumLength is the length of the checksum suffix of the extended address form.
	ChecksumLength = 4
	reservedByte   = 0xbb
)

// ErrInvalidAddressFormat is returned when a string can't be normalized to an address.
var ErrInvalidAddressFormat = errors.New("invalid address format")

var reservedPrefix = bytes.Repeat([]byte{reservedByte}, ReservedPrefixLength)

// DeriveReserved returns the reserved address of a native account.
func DeriveReserved(name types.Name) common.Address {
	var addr common.Address
	copy(addr[:], reservedPrefix)
	binary.BigEndian.PutUint64(addr[ReservedPrefixLength:], uint64(name))
	return addr
}

// IsReserved is true if addr lies in the reserved prefix space.
func IsReserved(addr common.Address) bool {
	return bytes.Equal(addr[:ReservedPrefixLength], reservedPrefix)
}

// ReverseReserved returns the native account behind a reserved address.
func ReverseReserved(addr common.Address) (types.Name, bool) {
	if !IsReserved(addr) {
		return 0, false
	}
	return types.Name(binary.BigEndian.Uint64(addr[ReservedPrefixLength:])), true
}

// DeriveContract returns the address of a contract created by sender with the given nonce.
func DeriveContract(sender common.Address, nonce uint64) common.Address {
	data, err := rlp.EncodeToBytes([]any{sender, nonce})
	if err != nil {
		// encoding of an address and an integer can't fail
		panic(fmt.Sprintf("encode contract preimage: %v", err))
	}
	return common.BytesToAddress(crypto.Keccak256(data)[12:])
}

// Normalize parses a hex encoded address, with or without 0x prefix, in either
// the plain 20 bytes form or the 24 bytes form with a trailing checksum.
func Normalize(raw string) (common.Address, error) {
	switch len(raw) {
	case 2*common.AddressLength + 2, 2*(common.AddressLength+ChecksumLength) + 2:
		if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
			return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddressFormat, raw)
		}
		raw = raw[2:]
	}
	if len(raw) != 2*common.AddressLength && len(raw) != 2*(common.AddressLength+ChecksumLength) {
		return common.Address{}, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddressFormat, len(raw))
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidAddressFormat, err)
	}
	if len(decoded) == common.AddressLength+ChecksumLength {
		sum := crypto.Keccak256(decoded[:common.AddressLength])[:ChecksumLength]
		if !bytes.Equal(sum, decoded[common.AddressLength:]) {
			return common.Address{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddressFormat)
		}
		decoded = decoded[:common.AddressLength]
	}
	return common.BytesToAddress(decoded), nil
}

// Checksummed returns the 24 bytes form of addr as 0x-prefixed hex.
func Checksummed(addr common.Address) string {
	sum := crypto.Keccak256(addr[:])[:ChecksumLength]
	return "0x" + hex.EncodeToString(append(addr.Bytes(), sum...))
}
