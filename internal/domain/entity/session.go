package entity

import "math/big"

// SessionStatus is the connection state of the active network session.
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "disconnected"
	StatusConnecting   SessionStatus = "connecting"
	StatusConnected    SessionStatus = "connected"
)

// ChainRole identifies one of the three well-known chains of a network.
type ChainRole string

const (
	ChainX ChainRole = "X"
	ChainP ChainRole = "P"
	ChainC ChainRole = "C"
)

// ChainRoles lists the roles in the order they are configured.
var ChainRoles = []ChainRole{ChainX, ChainP, ChainC}

// SessionSnapshot is a point-in-time copy of the session state.
type SessionSnapshot struct {
	Status          SessionStatus `json:"status"`
	SelectedNetwork *Network      `json:"selectedNetwork,omitempty"`
	TxFee           *big.Int      `json:"txFee"`
	Epoch           uint64        `json:"epoch"`
}

// MinimumStake holds the staking minimums reported by the platform chain.
type MinimumStake struct {
	Validator *big.Int `json:"minValidatorStake"`
	Delegator *big.Int `json:"minDelegatorStake"`
}
