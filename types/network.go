package types

// Network identifies the blockchain a payment must occur on.
type Network string

const (
	NetworkEthereum    Network = "ethereum"
	NetworkSepolia     Network = "sepolia" // testnet
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkPolygon     Network = "polygon"
	NetworkPolygonAmoy Network = "polygon-amoy" // testnet
)

// IsEVM reports whether the network speaks the Ethereum JSON-RPC wire protocol.
// Only EVM networks can be registered with the verifier.
func (n Network) IsEVM() bool {
	switch n {
	case NetworkEthereum, NetworkSepolia, NetworkBase, NetworkBaseSepolia, NetworkPolygon, NetworkPolygonAmoy:
		return true
	}
	return false
}

// IsTestnet reports whether the network is a test network.
func (n Network) IsTestnet() bool {
	switch n {
	case NetworkSepolia, NetworkBaseSepolia, NetworkPolygonAmoy:
		return true
	}
	return false
}

func (n Network) String() string {
	return string(n)
}
