package port

// Wallet is an open wallet/account that reacts to network changes.
type Wallet interface {
	OnNetworkChanged()
}

// AuthSession exposes the user session state the coordinator needs.
type AuthSession interface {
	IsAuthenticated() bool
	Wallets() []Wallet
}
