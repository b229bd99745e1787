package entity

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Network describes one endpoint the wallet can connect to.
// Built-in networks are read-only; user-added networks never are.
type Network struct {
	Name            string `json:"name" yaml:"name"`
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	Protocol        string `json:"protocol" yaml:"protocol"`
	NetworkID       uint32 `json:"networkId" yaml:"networkId"`
	ExplorerAPIURL  string `json:"explorerUrl" yaml:"explorerUrl"`
	ExplorerSiteURL string `json:"explorerSiteUrl" yaml:"explorerSiteUrl"`
	Readonly        bool   `json:"readonly" yaml:"readonly"`
}

// NewNetworkFromURL builds a Network from an endpoint URL such as
// "https://api.avax.network:443". When the port is omitted the scheme default is used.
func NewNetworkFromURL(name, rawURL string, networkID uint32, explorerAPIURL, explorerSiteURL string, readonly bool) (Network, error) {
	if strings.TrimSpace(rawURL) == "" {
		return Network{}, fmt.Errorf("network url cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Network{}, fmt.Errorf("invalid network url format '%s': %w", rawURL, err)
	}

	protocol := strings.ToLower(u.Scheme)
	if protocol != "http" && protocol != "https" {
		return Network{}, fmt.Errorf("network url '%s' has unsupported scheme: '%s'", rawURL, protocol)
	}
	if u.Hostname() == "" {
		return Network{}, fmt.Errorf("network url '%s' has no host", rawURL)
	}

	port := 443
	if protocol == "http" {
		port = 80
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Network{}, fmt.Errorf("network url '%s' has invalid port '%s'", rawURL, p)
		}
	}

	return Network{
		Name:            name,
		Host:            u.Hostname(),
		Port:            port,
		Protocol:        protocol,
		NetworkID:       networkID,
		ExplorerAPIURL:  explorerAPIURL,
		ExplorerSiteURL: explorerSiteURL,
		Readonly:        readonly,
	}, nil
}

// Equal reports whether two descriptors match field by field.
func (n Network) Equal(other Network) bool {
	return n == other
}

// URL returns the base endpoint, e.g. "https://api.avax.network:443".
func (n Network) URL() string {
	return fmt.Sprintf("%s://%s:%d", n.Protocol, n.Host, n.Port)
}

// EVMRPCURL returns the C-chain EVM endpoint. It is always https, matching how
// the wallet has historically configured its web3 provider.
func (n Network) EVMRPCURL() string {
	return fmt.Sprintf("https://%s:%d/ext/bc/C/rpc", n.Host, n.Port)
}

// Validate checks the fields a connection attempt depends on.
func (n Network) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("network name cannot be empty")
	}
	if strings.TrimSpace(n.Host) == "" {
		return fmt.Errorf("network host cannot be empty")
	}
	if n.Port <= 0 || n.Port > 65535 {
		return fmt.Errorf("network port %d out of range", n.Port)
	}
	switch n.Protocol {
	case "http", "https":
	default:
		return fmt.Errorf("network protocol '%s' is not supported", n.Protocol)
	}
	return nil
}

// AsCustom returns a copy marked as user-defined.
func (n Network) AsCustom() Network {
	n.Readonly = false
	return n
}

// PreferredHRP returns the bech32 human-readable part used for addresses on a network id.
func PreferredHRP(networkID uint32) string {
	switch networkID {
	case 1:
		return "avax"
	case 5:
		return "fuji"
	case 12345:
		return "local"
	default:
		return "custom"
	}
}
