package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Pricing  PricingConfig  `json:"pricing"`
	Sync     SyncConfig     `json:"sync"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"dbname"`
	SSLMode        string `json:"sslmode"`
	MigrationsPath string `json:"migrations_path"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type PricingConfig struct {
	ShippingThreshold float64             `json:"shipping_threshold"`
	ShippingFee       float64             `json:"shipping_fee"`
	DiscountTiers     []cart.DiscountTier `json:"discount_tiers"`
}

type SyncConfig struct {
	ChannelKey               string `json:"channel_key"`
	HeartbeatIntervalSeconds int    `json:"heartbeat_interval_seconds"`
	ReconcileIntervalSeconds int    `json:"reconcile_interval_seconds"`
	PollIntervalSeconds      int    `json:"poll_interval_seconds"`
	CatalogRefreshSeconds    int    `json:"catalog_refresh_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Sync.ChannelKey == "" {
		c.Sync.ChannelKey = "sync:latest_event"
	}
	if c.Sync.HeartbeatIntervalSeconds <= 0 {
		c.Sync.HeartbeatIntervalSeconds = 30
	}
	if c.Sync.ReconcileIntervalSeconds <= 0 {
		c.Sync.ReconcileIntervalSeconds = 60
	}
	if c.Sync.PollIntervalSeconds <= 0 {
		c.Sync.PollIntervalSeconds = 15
	}
	if c.Sync.CatalogRefreshSeconds <= 0 {
		c.Sync.CatalogRefreshSeconds = 300
	}
	if len(c.Pricing.DiscountTiers) == 0 {
		c.Pricing.DiscountTiers = []cart.DiscountTier{
			{MinimumWeight: 20, Percent: 5},
			{MinimumWeight: 50, Percent: 10},
			{MinimumWeight: 100, Percent: 15},
		}
	}
	if c.Pricing.ShippingThreshold == 0 {
		c.Pricing.ShippingThreshold = 1000
	}
	if c.Pricing.ShippingFee == 0 {
		c.Pricing.ShippingFee = 50
	}
}

func (c *Config) PricingPolicy() cart.PricingPolicy {
	return cart.PricingPolicy{
		ShippingThreshold: c.Pricing.ShippingThreshold,
		ShippingFee:       c.Pricing.ShippingFee,
		DiscountTiers:     c.Pricing.DiscountTiers,
	}
}

func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
