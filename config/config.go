package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

type api struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

type tlsFiles struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

func (t tlsFiles) Enabled() bool { return t.CAFile != "" }

type events struct {
	Enabled            bool     `mapstructure:"enabled"`
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	Topic              string   `mapstructure:"topic"`
	TLS                tlsFiles `mapstructure:"tls"`
}

type Config struct {
	LogLevel    slog.Level `mapstructure:"log_level"`
	SessionFile string     `mapstructure:"session_file"`
	API         api        `mapstructure:"api"`
	Events      events     `mapstructure:"events"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the config at path. Keys missing from the file take
// their default values, unknown keys are an error.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("session_file", "./session.yaml")
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "5s")
	v.SetDefault("api.batch_concurrency", 8)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.topic", "storefront-session-events")
	v.SetDefault("events.tls.ca_file", "")
	v.SetDefault("events.tls.cert_file", "")
	v.SetDefault("events.tls.key_file", "")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	SessionFile=%q

	API:
	BaseURL=%q
	Timeout=%q
	BatchConcurrency=%d

	Events:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topic=%q
	TLS:
		CAFile=%q
		CertFile=%q
		KeyFile=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.SessionFile,
		c.API.BaseURL,
		c.API.Timeout,
		c.API.BatchConcurrency,
		c.Events.Enabled,
		c.Events.SeedBrokers,
		c.Events.SchemaRegistryURLs,
		c.Events.Topic,
		c.Events.TLS.CAFile,
		c.Events.TLS.CertFile,
		c.Events.TLS.KeyFile,
	)
}
