package types

// GasSchedule holds per-operation gas costs charged on top of the base EVM metering.
type GasSchedule struct {
	TxNewAccount uint64 `json:"gasTxnewaccount"`
	NewAccount   uint64 `json:"gasNewaccount"`
	TxCreate     uint64 `json:"gasTxcreate"`
	CodeDeposit  uint64 `json:"gasCodedeposit"`
	Sset         uint64 `json:"gasSset"`
}

// IsZero is true for the schedule of version 0 networks.
func (g GasSchedule) IsZero() bool {
	return g == GasSchedule{}
}

// ConsensusParams is the parameter set authoritative for block production.
type ConsensusParams struct {
	Version  uint64
	GasPrice uint64
	Schedule GasSchedule
}
