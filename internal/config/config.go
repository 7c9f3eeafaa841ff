package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	PollInterval   time.Duration `mapstructure:"POLL_INTERVAL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	StorePath      string        `mapstructure:"STORE_PATH"`
	StubPort       string        `mapstructure:"STUB_PORT"`
	SupportPhone   string        `mapstructure:"SUPPORT_PHONE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("API_BASE_URL", "https://intervention.tekfaso.com/api")
	v.SetDefault("POLL_INTERVAL", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_PATH", defaultStorePath())
	v.SetDefault("STUB_PORT", "8080")
	v.SetDefault("SUPPORT_PHONE", "0800123456")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "urgelec.db"
	}
	return filepath.Join(home, ".urgelec", "urgelec.db")
}
