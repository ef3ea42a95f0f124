package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the immutable node configuration. It is loaded once at startup;
// nothing re-reads it while the process runs.
type Config struct {
	RPCAddress string `toml:"RPCAddress"`
	DataDir    string `toml:"DataDir"`
	Env        string `toml:"Env"`

	// OwnerAddress is the contract owner (hex, 20 bytes) allowed to query
	// the pool balance.
	OwnerAddress string `toml:"OwnerAddress"`
	// PoolAddress is the account credited with collected fees.
	PoolAddress string `toml:"PoolAddress"`

	// RewardIntervalSeconds is the minimum gap between reward rounds.
	RewardIntervalSeconds uint64 `toml:"RewardIntervalSeconds"`
	// EligibilityThreshold is the minimum net score for reward candidacy.
	EligibilityThreshold int64 `toml:"EligibilityThreshold"`
	// WinnerHistory bounds the recent-winners list.
	WinnerHistory int `toml:"WinnerHistory"`
	// RandomWords is the number of words requested per round.
	RandomWords uint32 `toml:"RandomWords"`

	// EditFeeUSDCents and DeleteFeeUSDCents are the fee-gate minimums.
	EditFeeUSDCents   uint64 `toml:"EditFeeUSDCents"`
	DeleteFeeUSDCents uint64 `toml:"DeleteFeeUSDCents"`

	// DevPrice and DevPriceDecimals seed the static dev price feed.
	DevPrice         string `toml:"DevPrice"`
	DevPriceDecimals uint8  `toml:"DevPriceDecimals"`
	// UpkeepPollSeconds is the keeper poll cadence in dev mode.
	UpkeepPollSeconds uint64 `toml:"UpkeepPollSeconds"`
}

func defaultConfig() *Config {
	return &Config{
		RPCAddress:            "127.0.0.1:8547",
		DataDir:               "./chainsphere-data",
		Env:                   "dev",
		OwnerAddress:          "0x0000000000000000000000000000000000000001",
		PoolAddress:           "0x00000000000000000000000000000000000000fe",
		RewardIntervalSeconds: 86400,
		EligibilityThreshold:  5,
		WinnerHistory:         16,
		RandomWords:           1,
		EditFeeUSDCents:       50,
		DeleteFeeUSDCents:     100,
		DevPrice:              "250000000000", // 2500 USD at 8 decimals
		DevPriceDecimals:      8,
		UpkeepPollSeconds:     15,
	}
}

// Load reads the configuration at path, writing a default file first when
// none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and address formats.
func (c *Config) Validate() error {
	if c.RewardIntervalSeconds == 0 {
		return fmt.Errorf("config: RewardIntervalSeconds must be positive")
	}
	if c.WinnerHistory <= 0 {
		return fmt.Errorf("config: WinnerHistory must be positive")
	}
	if c.RandomWords == 0 {
		return fmt.Errorf("config: RandomWords must be positive")
	}
	if _, err := ParseAddress(c.OwnerAddress); err != nil {
		return fmt.Errorf("config: OwnerAddress: %w", err)
	}
	if _, err := ParseAddress(c.PoolAddress); err != nil {
		return fmt.Errorf("config: PoolAddress: %w", err)
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed, 20-byte hex address.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address length %d", len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
