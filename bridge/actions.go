package bridge

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/params"
)

var (
	ActionInit         = types.MustName("init")
	ActionPushTx       = types.MustName("pushtx")
	ActionCall         = types.MustName("call")
	ActionAdminCall    = types.MustName("admincall")
	ActionSetFeeParams = types.MustName("setfeeparams")
	ActionSetVersion   = types.MustName("setversion")
	ActionUpdtGasParam = types.MustName("updtgasparam")
	ActionOpen         = types.MustName("open")
	ActionWithdraw     = types.MustName("withdraw")
	ActionLinkAddr     = types.MustName("linkaddr")
	ActionOnBlock      = types.MustName("onblock")
	ActionEvmTx        = types.MustName("evmtx")
	ActionConfigChange = types.MustName("configchange")
)

// Init configures the bridge once.
type Init struct {
	ChainID       uint64
	TokenContract types.Name
	FeeParams     types.FeeParams
}

// PushTx relays a signed EVM transaction on behalf of Miner.
type PushTx struct {
	Miner types.Name
	RLPTx []byte

	// Record is set by the bridge itself for transactions it already applied.
	// It is how version 0 blocks observe deposits and calls.
	Record *types.TxRecord
}

// Call executes an EVM message from the reserved address of a native account.
type Call struct {
	From     types.Name
	To       *common.Address
	Value    *uint256.Int
	Data     []byte
	GasLimit uint64
}

// AdminCall executes an EVM message from an arbitrary address.
type AdminCall struct {
	From     common.Address
	To       *common.Address
	Value    *uint256.Int
	Data     []byte
	GasLimit uint64
}

// SetFeeParams updates the fee parameters that are set.
type SetFeeParams struct {
	GasPrice         *uint64
	MinerCut         *uint64
	IngressBridgeFee *types.Asset
}

// SetVersion proposes a consensus version.
type SetVersion struct {
	Version uint64
}

// UpdtGasParam proposes a gas schedule derived from the price of storage.
type UpdtGasParam struct {
	RAMPriceMb types.Asset
	GasPrice   uint64
}

// Open creates an open balance for Owner.
type Open struct {
	Owner types.Name
}

// Withdraw pays Quantity from the open balance of Owner.
type Withdraw struct {
	Owner    types.Name
	Quantity types.Asset
}

// LinkAddr routes withdrawals to Address into Owner.
type LinkAddr struct {
	Owner   types.Name
	Address common.Address
}

// OnBlock starts a block. It is the first submission of every block.
type OnBlock struct {
	Number    uint64
	Timestamp uint64
}

// EvmTx is emitted by the bridge for every applied EVM transaction starting with version 1.
type EvmTx struct {
	Record types.TxRecord
}

// ConfigChange is emitted at the start of a block that activated new parameters.
type ConfigChange struct {
	params.Activation
}
