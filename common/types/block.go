package types

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TxKind is the origin of a transaction included in an EVM block.
type TxKind uint8

const (
	// TxPush is a signed transaction relayed by a miner.
	TxPush TxKind = iota
	// TxCall is a transaction issued on behalf of a native account.
	TxCall
	// TxAdminCall is a transaction issued by the bridge on behalf of any address.
	TxAdminCall
	// TxDeposit credits an EVM address from a native transfer.
	TxDeposit
)

func (k TxKind) String() string {
	switch k {
	case TxPush:
		return "pushtx"
	case TxCall:
		return "call"
	case TxAdminCall:
		return "admincall"
	case TxDeposit:
		return "deposit"
	}
	return "unknown"
}

// TxRecord is a transaction as it appears in an EVM block.
type TxRecord struct {
	Hash     common.Hash
	Kind     TxKind
	From     common.Address
	To       *common.Address `rlp:"nil"`
	Nonce    uint64
	Value    *uint256.Int
	GasUsed  uint64
	GasPrice uint64
	// Sequence is the global sequence of the native action the transaction was applied by.
	Sequence uint64
}

// Block is an EVM block assembled from one native block.
type Block struct {
	Number     uint64
	Timestamp  uint64
	ParentHash common.Hash
	// Nonce carries the active consensus version.
	Nonce [8]byte
	// BaseFeePerGas is nil for version 0 blocks.
	BaseFeePerGas *uint256.Int
	// ConsensusParameter is present only in the block that activated a new schedule.
	ConsensusParameter *GasSchedule `rlp:"nil"`
	Transactions       []TxRecord
	GasUsed            uint64

	// Hash is derived from the fields above and not encoded.
	Hash common.Hash `rlp:"-"`
}

// Version decodes the consensus version from the header nonce.
func (b *Block) Version() uint64 {
	return binary.BigEndian.Uint64(b.Nonce[:])
}

// EncodeNonce packs a version into a header nonce.
func EncodeNonce(version uint64) [8]byte {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], version)
	return n
}
