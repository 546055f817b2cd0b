package entity

// NetworkType defines the type for network classifications (e.g., mainnet, testnet).
type NetworkType string

// Constants for known network types.
const (
	NetworkMainnet NetworkType = "mainnet"
	NetworkTestnet NetworkType = "testnet"
)

// Chain is the subset of a registry entry needed to derive probe endpoints.
type Chain struct {
	Name      string
	ShortName string
	ChainID   int64
	NetworkID int64
	Network   NetworkType
	RPC       []EndpointURL
}

// Endpoints splits the chain's RPC list into HTTP(S) and WS(S) endpoint sets, keeping registry order.
func (c Chain) Endpoints() EndpointConfig {
	cfg := EndpointConfig{RPCURLs: []string{}, WSURLs: []string{}}
	for _, u := range c.RPC {
		switch u.Protocol() {
		case ProtocolHTTP, ProtocolHTTPS:
			cfg.RPCURLs = append(cfg.RPCURLs, u.String())
		case ProtocolWS, ProtocolWSS:
			cfg.WSURLs = append(cfg.WSURLs, u.String())
		}
	}
	return cfg
}
