package entity

import "math/big"

// Balance is the amount of one asset held by an address on one chain.
type Balance struct {
	Address          string    `json:"address"`
	Chain            ChainRole `json:"chain"`
	AssetID          string    `json:"assetId"`
	Symbol           string    `json:"symbol"`
	Denomination     uint8     `json:"denomination"`
	Amount           *big.Int  `json:"-"`
	FormattedBalance string    `json:"formattedBalance"`
}
