// Package oracle is the off-chain metering node. It keeps one device
// registered on the devnet, answers grid events with commitments derived
// from live meter readings, and heartbeats the registry so the device
// keeps its availability score.
package oracle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/powergrid/powergrid-der/x/types"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	API      APIConfig    `mapstructure:"api"`
	Device   DeviceConfig `mapstructure:"device"`
	Meter    MeterConfig  `mapstructure:"meter"`
	Node     NodeConfig   `mapstructure:"node"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Sender  string `mapstructure:"sender"`
}

type DeviceConfig struct {
	Type            string `mapstructure:"type"`
	CapacityWatts   uint64 `mapstructure:"capacity_watts"`
	Location        string `mapstructure:"location"`
	Manufacturer    string `mapstructure:"manufacturer"`
	Model           string `mapstructure:"model"`
	FirmwareVersion string `mapstructure:"firmware_version"`
	StakeTokens     uint64 `mapstructure:"stake_tokens"`
}

type MeterConfig struct {
	Mode           string `mapstructure:"mode"` // "sim" or "http"
	Endpoint       string `mapstructure:"endpoint"`
	BaselineWatts  uint64 `mapstructure:"baseline_watts"`
	JitterPermille uint64 `mapstructure:"jitter_permille"`
	Seed           int64  `mapstructure:"seed"`
}

type NodeConfig struct {
	PollIntervalSecs      uint64 `mapstructure:"poll_interval_secs"`
	HeartbeatIntervalSecs uint64 `mapstructure:"heartbeat_interval_secs"`
	CommitRatioPermille   uint64 `mapstructure:"commit_ratio_permille"`
	BackoffBaseSecs       uint64 `mapstructure:"backoff_base_secs"`
	BackoffMaxSecs        uint64 `mapstructure:"backoff_max_secs"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		API: APIConfig{
			BaseURL: "http://localhost:8480",
		},
		Device: DeviceConfig{
			Type:          string(types.DeviceBattery),
			CapacityWatts: 5000,
			Location:      "unset",
			Manufacturer:  "unset",
			StakeTokens:   2,
		},
		Meter: MeterConfig{
			Mode:           MeterModeSim,
			BaselineWatts:  1500,
			JitterPermille: 100,
			Seed:           1,
		},
		Node: NodeConfig{
			PollIntervalSecs:      5,
			HeartbeatIntervalSecs: 3600,
			CommitRatioPermille:   800,
			BackoffBaseSecs:       2,
			BackoffMaxSecs:        60,
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("device.type", def.Device.Type)
	v.SetDefault("device.capacity_watts", def.Device.CapacityWatts)
	v.SetDefault("device.stake_tokens", def.Device.StakeTokens)
	v.SetDefault("meter.mode", def.Meter.Mode)
	v.SetDefault("meter.baseline_watts", def.Meter.BaselineWatts)
	v.SetDefault("meter.jitter_permille", def.Meter.JitterPermille)
	v.SetDefault("meter.seed", def.Meter.Seed)
	v.SetDefault("node.poll_interval_secs", def.Node.PollIntervalSecs)
	v.SetDefault("node.heartbeat_interval_secs", def.Node.HeartbeatIntervalSecs)
	v.SetDefault("node.commit_ratio_permille", def.Node.CommitRatioPermille)
	v.SetDefault("node.backoff_base_secs", def.Node.BackoffBaseSecs)
	v.SetDefault("node.backoff_max_secs", def.Node.BackoffMaxSecs)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !common.IsHexAddress(c.API.Sender) {
		return fmt.Errorf("api.sender %q is not a hex address", c.API.Sender)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	if err := c.Device.Metadata().Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if c.Node.CommitRatioPermille == 0 || c.Node.CommitRatioPermille > 1000 {
		return fmt.Errorf("node.commit_ratio_permille must be in 1..1000, got %d", c.Node.CommitRatioPermille)
	}
	switch c.Meter.Mode {
	case MeterModeSim:
	case MeterModeHTTP:
		if c.Meter.Endpoint == "" {
			return fmt.Errorf("meter.endpoint required for http mode")
		}
	default:
		return fmt.Errorf("unknown meter mode %q", c.Meter.Mode)
	}
	return nil
}

// SenderAccount returns the configured device account.
func (c Config) SenderAccount() types.Account {
	return common.HexToAddress(c.API.Sender)
}

// Metadata builds the registration metadata for the configured device.
func (d DeviceConfig) Metadata() types.DeviceMetadata {
	return types.DeviceMetadata{
		DeviceType:      types.DeviceType(d.Type),
		CapacityWatts:   d.CapacityWatts,
		Location:        d.Location,
		Manufacturer:    d.Manufacturer,
		Model:           d.Model,
		FirmwareVersion: d.FirmwareVersion,
	}
}
