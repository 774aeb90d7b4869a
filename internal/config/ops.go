package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// InitConfig holds configuration for the init command.
type InitConfig struct {
	Config
	TokenX common.Address
	TokenY common.Address
	Seed   uint64
	FeeBps uint16
}

// LoadInit merges config file, environment variables, and flags into InitConfig.
func LoadInit(cfgFile string, flags *pflag.FlagSet) (InitConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return InitConfig{}, err
	}
	tokenX, err := getAddress(v, "token-x")
	if err != nil {
		return InitConfig{}, err
	}
	tokenY, err := getAddress(v, "token-y")
	if err != nil {
		return InitConfig{}, err
	}
	fee := v.GetUint64("fee-bps")
	if fee > 10_000 {
		return InitConfig{}, fmt.Errorf("fee-bps %d exceeds 10000", fee)
	}
	return InitConfig{
		Config: base,
		TokenX: tokenX,
		TokenY: tokenY,
		Seed:   v.GetUint64("seed"),
		FeeBps: uint16(fee),
	}, nil
}

// DepositConfig holds configuration for the deposit command.
type DepositConfig struct {
	Config
	Pool       common.Address
	LPAmount   uint64
	MaxX       uint64
	MaxY       uint64
	Expiration int64
}

// LoadDeposit merges config file, environment variables, and flags into
// DepositConfig. Without an explicit expiration the deposit expires ttl
// after now.
func LoadDeposit(cfgFile string, flags *pflag.FlagSet, now time.Time) (DepositConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return DepositConfig{}, err
	}
	pool, err := getAddress(v, "pool")
	if err != nil {
		return DepositConfig{}, err
	}

	expiration := now.Add(v.GetDuration("ttl")).Unix()
	if raw := v.GetString("expiration"); strings.TrimSpace(raw) != "" {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return DepositConfig{}, fmt.Errorf("parse expiration: %w", err)
		}
		expiration = int64(ts)
	}

	return DepositConfig{
		Config:     base,
		Pool:       pool,
		LPAmount:   v.GetUint64("lp"),
		MaxX:       v.GetUint64("max-x"),
		MaxY:       v.GetUint64("max-y"),
		Expiration: expiration,
	}, nil
}

// WithdrawConfig holds configuration for the withdraw command.
type WithdrawConfig struct {
	Config
	Pool     common.Address
	LPAmount uint64
	MinX     uint64
	MinY     uint64
}

// LoadWithdraw merges config file, environment variables, and flags into WithdrawConfig.
func LoadWithdraw(cfgFile string, flags *pflag.FlagSet) (WithdrawConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return WithdrawConfig{}, err
	}
	pool, err := getAddress(v, "pool")
	if err != nil {
		return WithdrawConfig{}, err
	}
	return WithdrawConfig{
		Config:   base,
		Pool:     pool,
		LPAmount: v.GetUint64("lp"),
		MinX:     v.GetUint64("min-x"),
		MinY:     v.GetUint64("min-y"),
	}, nil
}

// SwapConfig holds configuration for the swap command.
type SwapConfig struct {
	Config
	Pool     common.Address
	IsX      bool
	AmountIn uint64
	MinOut   uint64
}

// LoadSwap merges config file, environment variables, and flags into SwapConfig.
func LoadSwap(cfgFile string, flags *pflag.FlagSet) (SwapConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return SwapConfig{}, err
	}
	pool, err := getAddress(v, "pool")
	if err != nil {
		return SwapConfig{}, err
	}
	isX, err := ParseSide(v.GetString("sell"))
	if err != nil {
		return SwapConfig{}, err
	}
	return SwapConfig{
		Config:   base,
		Pool:     pool,
		IsX:      isX,
		AmountIn: v.GetUint64("amount-in"),
		MinOut:   v.GetUint64("min-out"),
	}, nil
}

// PoolConfig holds configuration for commands addressing one pool.
type PoolConfig struct {
	Config
	Pool common.Address
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return PoolConfig{}, err
	}
	pool, err := getAddress(v, "pool")
	if err != nil {
		return PoolConfig{}, err
	}
	return PoolConfig{Config: base, Pool: pool}, nil
}

// AssetConfig holds configuration for asset create/mint and balance.
type AssetConfig struct {
	Config
	Assets   []common.Address
	To       common.Address
	Owner    common.Address
	Amount   uint64
	Decimals uint8
}

// LoadAsset merges config file, environment variables, and flags into AssetConfig.
func LoadAsset(cfgFile string, flags *pflag.FlagSet) (AssetConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return AssetConfig{}, err
	}

	raw := getStringSlice(v, "asset")
	if len(raw) == 0 {
		return AssetConfig{}, fmt.Errorf("asset is required")
	}
	assets := make([]common.Address, 0, len(raw))
	for _, item := range raw {
		if !common.IsHexAddress(item) {
			return AssetConfig{}, fmt.Errorf("asset: invalid address %q", item)
		}
		assets = append(assets, common.HexToAddress(item))
	}

	cfg := AssetConfig{
		Config:   base,
		Assets:   assets,
		Amount:   v.GetUint64("amount"),
		Decimals: uint8(v.GetUint("decimals")),
	}
	if v.GetString("to") != "" {
		to, err := getAddress(v, "to")
		if err != nil {
			return AssetConfig{}, err
		}
		cfg.To = to
	}
	if v.GetString("owner") != "" {
		owner, err := getAddress(v, "owner")
		if err != nil {
			return AssetConfig{}, err
		}
		cfg.Owner = owner
	}
	return cfg, nil
}

func load(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return nil, Config{}, err
	}
	base, err := loadBase(v)
	if err != nil {
		return nil, Config{}, err
	}
	return v, base, nil
}

// ParseSide maps "x" or "y" to the isX flag of a swap.
func ParseSide(side string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "x":
		return true, nil
	case "y":
		return false, nil
	default:
		return false, fmt.Errorf("sell must be x or y, got %q", side)
	}
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}

// StatsConfig holds configuration for the stats command.
type StatsConfig struct {
	Config
	Pool          common.Address
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	Resume        bool
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, base, err := load(cfgFile, flags)
	if err != nil {
		return StatsConfig{}, err
	}
	if base.Journal == "" {
		return StatsConfig{}, fmt.Errorf("journal path is required")
	}

	window, err := time.ParseDuration(v.GetString("window"))
	if err != nil {
		return StatsConfig{}, fmt.Errorf("invalid window: %w", err)
	}
	windowSeconds := uint64(window.Seconds())
	if windowSeconds == 0 {
		return StatsConfig{}, fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := ParseTimestamp(v.GetString("recompute-from"))
	if err != nil {
		return StatsConfig{}, fmt.Errorf("parse recompute-from: %w", err)
	}

	cfg := StatsConfig{
		Config:        base,
		WindowSeconds: windowSeconds,
		BatchSize:     v.GetInt("batch-size"),
		RecomputeFrom: recomputeFrom,
		Resume:        v.GetBool("resume"),
	}
	if v.GetString("pool") != "" {
		pool, err := getAddress(v, "pool")
		if err != nil {
			return StatsConfig{}, err
		}
		cfg.Pool = pool
	}
	return cfg, nil
}
