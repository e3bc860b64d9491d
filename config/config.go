package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "PRODUCTHUB_CONFIG_FILE"
	envPrefix         = "PRODUCTHUB"
	defaultConfigFile = "config.yaml"
)

type catalog struct {
	BaseURL  string        `mapstructure:"base_url"`
	Limit    int           `mapstructure:"limit"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type storage struct {
	Driver     string `mapstructure:"driver"`
	Dir        string `mapstructure:"dir"`
	RedisAddr  string `mapstructure:"redis_addr"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type eventsTLS struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Enabled reports whether broker and registry connections use TLS.
func (t eventsTLS) Enabled() bool {
	return t.CAFile != ""
}

type events struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topic              string    `mapstructure:"topic"`
	TLS                eventsTLS `mapstructure:"tls"`
}

// Enabled reports whether client events are streamed to Kafka.
func (e events) Enabled() bool {
	return len(e.SeedBrokers) > 0
}

type httpConfig struct {
	RateLimit      int           `mapstructure:"rate_limit"`
	Production     bool          `mapstructure:"production"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	Timezone       string        `mapstructure:"timezone"`
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	Catalog        catalog       `mapstructure:"catalog"`
	Storage        storage       `mapstructure:"storage"`
	Events         events        `mapstructure:"events"`
	HTTP           httpConfig    `mapstructure:"http"`
}

// Location resolves Timezone, an empty value means the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("timezone", "")
	v.SetDefault("page_size", 10)
	v.SetDefault("search_debounce", 300*time.Millisecond)

	v.SetDefault("catalog.base_url", "https://dummyjson.com")
	v.SetDefault("catalog.limit", 200)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.cache_ttl", 5*time.Minute)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.sqlite_path", "data/producthub.db")

	v.SetDefault("events.seed_brokers", []string{})
	v.SetDefault("events.schema_registry_urls", []string{})
	v.SetDefault("events.topic", "client-events")
	v.SetDefault("events.tls.ca_file", "")
	v.SetDefault("events.tls.cert_file", "")
	v.SetDefault("events.tls.key_file", "")

	v.SetDefault("http.rate_limit", 60)
	v.SetDefault("http.production", false)
	v.SetDefault("http.request_timeout", 15*time.Second)
}

func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		die(err)
	}

	cfg, err := load(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// load reads path on top of the defaults and the PRODUCTHUB_ environment.
// A missing file is only an error when it was asked for explicitly.
func load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || path != defaultConfigFile {
			return Config{}, err
		}
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

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", defaultConfigFile, "config file")
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
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	Timezone=%q
	PageSize=%d
	SearchDebounce=%s

	Catalog:
	BaseURL=%q
	Limit=%d
	Timeout=%s
	CacheTTL=%s

	Storage:
	Driver=%q
	Dir=%q
	RedisAddr=%q
	SQLitePath=%q

	Events:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topic=%q
	TLS.CAFile=%q

	HTTP:
	RateLimit=%d
	Production=%t
	RequestTimeout=%s

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Timezone,
		c.PageSize,
		c.SearchDebounce,
		c.Catalog.BaseURL,
		c.Catalog.Limit,
		c.Catalog.Timeout,
		c.Catalog.CacheTTL,
		c.Storage.Driver,
		c.Storage.Dir,
		c.Storage.RedisAddr,
		c.Storage.SQLitePath,
		c.Events.SeedBrokers,
		c.Events.SchemaRegistryURLs,
		c.Events.Topic,
		c.Events.TLS.CAFile,
		c.HTTP.RateLimit,
		c.HTTP.Production,
		c.HTTP.RequestTimeout,
	)
}
