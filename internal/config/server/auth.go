package server

// AuthServerConfig configures bearer token verification. Tokens are HMAC
// signed with Secret; only principals holding AdminRole may save.
type AuthServerConfig struct {
	Secret    string `mapstructure:"secret"     yaml:"secret"`
	Issuer    string `mapstructure:"issuer"     yaml:"issuer"`
	AdminRole string `mapstructure:"admin_role" yaml:"admin_role"`
	TokenTTL  string `mapstructure:"token_ttl"  yaml:"token_ttl"`
}
