package config

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`
	RedisURL      string `mapstructure:"REDIS_URL" yaml:"redis_url"`

	// Latest released relayer build; devices reporting an older app_version
	// get an outdated-app incident opened against their channel.
	RelayerVersion string `mapstructure:"RELAYER_VERSION" yaml:"relayer_version"`

	// When set, a sync request whose signature was already seen within the
	// replay window is rejected as stale.
	ReplayStrict bool `mapstructure:"REPLAY_STRICT" yaml:"replay_strict"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
