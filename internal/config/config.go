package config

import (
	"github.com/spf13/viper"
)

// The harness is driven entirely by environment variables so that CI jobs and
// shell wrappers can select an environment/service pair without code changes.

type Config struct {
	BookingAPIURL   string  `mapstructure:"BOOKING_API_URL"`
	TargetURL       string  `mapstructure:"TARGET_URL"`
	APIToken        string  `mapstructure:"API_TOKEN"`
	SessionID       int     `mapstructure:"SESSION_ID"`
	Orders          int     `mapstructure:"ORDERS"`
	TicketsPerOrder int     `mapstructure:"TICKETS_PER_ORDER"`
	VirtualUsers    int     `mapstructure:"VIRTUAL_USERS"`
	WorkerRPS       int     `mapstructure:"WORKER_RPS"`
	RequestTimeout  int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	MinSuccessRate  float64 `mapstructure:"MIN_SUCCESS_RATE"`
	MaxP95Millis    int     `mapstructure:"MAX_P95_MILLIS"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev      bool    `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("BOOKING_API_URL", "http://localhost:8081")
	viper.SetDefault("TARGET_URL", "http://localhost:8081/api/v1/codes/validate")
	viper.SetDefault("API_TOKEN", "")
	viper.SetDefault("SESSION_ID", 1)
	viper.SetDefault("ORDERS", 1)
	viper.SetDefault("TICKETS_PER_ORDER", 10)
	viper.SetDefault("VIRTUAL_USERS", 10)
	viper.SetDefault("WORKER_RPS", 5)
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
	viper.SetDefault("MIN_SUCCESS_RATE", 0.99)
	viper.SetDefault("MAX_P95_MILLIS", 800)
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
