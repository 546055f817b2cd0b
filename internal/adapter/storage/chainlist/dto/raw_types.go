package chainlist_dto

// NetworkTypeRaw defines the type for network classifications (e.g., mainnet, testnet) from raw data.
type NetworkTypeRaw string

// Constants for known network types from raw data.
const (
	NetworkMainnetRaw NetworkTypeRaw = "mainnet"
	NetworkTestnetRaw NetworkTypeRaw = "testnet"
)

// ChainRaw is the part of a Chainlist registry entry the prober reads.
// Unknown fields in the registry document are ignored.
type ChainRaw struct {
	Name      string         `json:"name"`
	Chain     string         `json:"chain"`
	RPC       []string       `json:"rpc"`
	ShortName string         `json:"shortName"`
	ChainID   int64          `json:"chainId"`
	NetworkID int64          `json:"networkId"`
	Network   NetworkTypeRaw `json:"network,omitempty"`
}
