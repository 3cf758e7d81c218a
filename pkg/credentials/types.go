package credentials

// Credentials represents the stored gateway tokens in credentials.toml.
type Credentials struct {
	Version  int                          `toml:"version"`
	Gateways map[string]GatewayCredential `toml:"gateways"`
}

// GatewayCredential holds the bearer token for a single gateway.
type GatewayCredential struct {
	Token string `toml:"token"`
}
