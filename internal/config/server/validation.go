package server

type ValidationServerConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"`
	BatchSize  int    `mapstructure:"batch_size"  yaml:"batch_size"`
	BatchDelay string `mapstructure:"batch_delay" yaml:"batch_delay"`
	CacheSize  int    `mapstructure:"cache_size"  yaml:"cache_size"`
	CacheTTL   string `mapstructure:"cache_ttl"   yaml:"cache_ttl"`
	Timeout    string `mapstructure:"timeout"     yaml:"timeout"`
}
