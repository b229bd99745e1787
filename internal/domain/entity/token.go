package entity

// EVMDenomination is the number of decimals of the native asset on the EVM chain.
const EVMDenomination = 18

// AssetDescription holds the details of an asset as reported by the X chain.
type AssetDescription struct {
	ID           string `json:"assetID"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Denomination uint8  `json:"denomination"`
}
