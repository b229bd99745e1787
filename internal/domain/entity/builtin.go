package entity

// Built-in network endpoints.
const (
	MainnetName            = "Mainnet"
	MainnetURL             = "https://api.avax.network:443"
	MainnetNetworkID       = 1
	MainnetExplorerAPIURL  = "https://explorerapi.avax.network"
	MainnetExplorerSiteURL = "https://explorer.avax.network"

	FujiName            = "Fuji"
	FujiURL             = "https://api.avax-test.network:443"
	FujiNetworkID       = 5
	FujiExplorerAPIURL  = "https://explorerapi.avax-test.network"
	FujiExplorerSiteURL = "https://explorer.avax-test.network"
)

// BuiltinNetworks returns the hardcoded networks, production first.
func BuiltinNetworks() []Network {
	mainnet, err := NewNetworkFromURL(MainnetName, MainnetURL, MainnetNetworkID, MainnetExplorerAPIURL, MainnetExplorerSiteURL, true)
	if err != nil {
		panic(err)
	}
	fuji, err := NewNetworkFromURL(FujiName, FujiURL, FujiNetworkID, FujiExplorerAPIURL, FujiExplorerSiteURL, true)
	if err != nil {
		panic(err)
	}
	return []Network{mainnet, fuji}
}
