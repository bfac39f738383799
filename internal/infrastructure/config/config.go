package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	History  HistoryConfig  `mapstructure:"history"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Neo4J    Neo4JConfig    `mapstructure:"neo4j"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPPort int    `mapstructure:"http_port"`
}

// ExplorerConfig represents the ledger-history API configuration
type ExplorerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	ChainID           int64         `mapstructure:"chain_id"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	TxURLBase         string        `mapstructure:"tx_url_base"`
}

// ChainConfig represents on-chain log source configuration
type ChainConfig struct {
	RPCURL      string        `mapstructure:"rpc_url"`
	BlockWindow uint64        `mapstructure:"block_window"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Tokens      []TokenConfig `mapstructure:"tokens"`
}

// TokenConfig describes a token watched by the on-chain log source
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals int    `mapstructure:"decimals"`
}

// WalletConfig represents the initially active account
type WalletConfig struct {
	Address string `mapstructure:"address"`
}

// HistoryConfig represents pipeline configuration
type HistoryConfig struct {
	Timezone       string        `mapstructure:"timezone"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `mapstructure:"url"`
	SubjectPrefix     string        `mapstructure:"subject_prefix"`
	ConsumerGroup     string        `mapstructure:"consumer_group"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	Enabled           bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	Enabled                      bool          `mapstructure:"enabled"`
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from .env files, environment variables and config files
func Load() (*Config, error) {
	// .env.local holds the explorer API key during local development
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wallet-history-indexer")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)

	// Explorer defaults
	v.SetDefault("explorer.enabled", true)
	v.SetDefault("explorer.base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer.api_key", "")
	v.SetDefault("explorer.chain_id", 1)
	v.SetDefault("explorer.page_size", 200)
	v.SetDefault("explorer.max_pages", 1)
	v.SetDefault("explorer.max_attempts", 5)
	v.SetDefault("explorer.initial_backoff", "500ms")
	v.SetDefault("explorer.request_timeout", "15s")
	v.SetDefault("explorer.requests_per_second", 5)
	v.SetDefault("explorer.tx_url_base", "https://etherscan.io")

	// Chain defaults
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.block_window", 5000)
	v.SetDefault("chain.timeout", "30s")
	v.SetDefault("chain.tokens", []map[string]interface{}{
		{"symbol": "DAI", "address": "0x1D70D57ccD2798323232B2dD027B3aBcA5C00091", "decimals": 18},
		{"symbol": "USDC", "address": "0xC891481A0AaC630F4D89744ccD2C7D2C4215FD47", "decimals": 6},
	})

	// Wallet defaults
	v.SetDefault("wallet.address", "")

	// History defaults
	v.SetDefault("history.timezone", "Local")
	v.SetDefault("history.refresh_timeout", "2m")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "wallet")
	v.SetDefault("nats.consumer_group", "wallet-history-indexer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.enabled", false)

	// Neo4J defaults
	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Bind env for the explorer credential
	v.BindEnv("explorer.api_key", "ETHERSCAN_API_KEY", "EXPLORER_API_KEY")
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("chain.rpc_url", "ETH_RPC_URL")
}

// Location resolves the configured history timezone
func (h HistoryConfig) Location() *time.Location {
	if h.Timezone == "" || h.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
