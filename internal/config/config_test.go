package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("store", "bolt", "")
	flags.String("bolt-path", "./data/amm.db", "")
	flags.String("pool", "", "")
	flags.Uint64("lp", 0, "")
	flags.Uint64("max-x", 0, "")
	flags.Uint64("max-y", 0, "")
	flags.String("expiration", "", "")
	flags.String("sell", "x", "")
	flags.Uint64("amount-in", 0, "")
	flags.StringSlice("asset", nil, "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const poolHex = "0x1000000000000000000000000000000000000001"

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	cfg, err := Load("", newFlags(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreBolt || cfg.BoltPath != "./data/amm.db" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.PGConflictRetries != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.RequireKey(); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("AMM_STORE", "postgres")
	t.Setenv("AMM_PG_DSN", "postgres://localhost/amm")
	t.Setenv("AMM_KEY", "0xabc")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.PGDSN != "postgres://localhost/amm" || cfg.Key != "0xabc" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	inTempDir(t)
	if _, err := Load("", newFlags(t, "--store", "sqlite")); err == nil {
		t.Fatalf("expected unknown store error")
	}
	if _, err := Load("", newFlags(t, "--store", "postgres")); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	inTempDir(t)
	path := filepath.Join(t.TempDir(), "amm.yaml")
	content := "store: bolt\nbolt-path: /tmp/other.db\nlog-level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BoltPath != "/tmp/other.db" || cfg.LogLevel != "debug" {
		t.Fatalf("config file not applied: %+v", cfg)
	}
}

func TestLoadDeposit(t *testing.T) {
	inTempDir(t)
	now := time.Unix(1_700_000_000, 0)

	cfg, err := LoadDeposit("", newFlags(t, "--pool", poolHex, "--lp", "500", "--max-x", "1000", "--max-y", "2000"), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pool != common.HexToAddress(poolHex) || cfg.LPAmount != 500 || cfg.MaxX != 1000 || cfg.MaxY != 2000 {
		t.Fatalf("unexpected deposit config: %+v", cfg)
	}
	if cfg.Expiration != now.Add(5*time.Minute).Unix() {
		t.Fatalf("expected ttl based expiration, got %d", cfg.Expiration)
	}

	cfg, err = LoadDeposit("", newFlags(t, "--pool", poolHex, "--expiration", "2024-01-01T00:00:00Z"), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Expiration != 1704067200 {
		t.Fatalf("unexpected expiration %d", cfg.Expiration)
	}

	if _, err := LoadDeposit("", newFlags(t, "--pool", "nope"), now); err == nil {
		t.Fatalf("expected invalid pool error")
	}
}

func TestLoadSwapSide(t *testing.T) {
	inTempDir(t)
	cfg, err := LoadSwap("", newFlags(t, "--pool", poolHex, "--sell", "Y", "--amount-in", "7"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsX || cfg.AmountIn != 7 {
		t.Fatalf("unexpected swap config: %+v", cfg)
	}
	if _, err := LoadSwap("", newFlags(t, "--pool", poolHex, "--sell", "z")); err == nil {
		t.Fatalf("expected invalid side error")
	}
}

func TestLoadAssetList(t *testing.T) {
	inTempDir(t)
	cfg, err := LoadAsset("", newFlags(t, "--asset", poolHex+", 0x2000000000000000000000000000000000000002"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(cfg.Assets))
	}
	if _, err := LoadAsset("", newFlags(t)); err == nil {
		t.Fatalf("expected missing asset error")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"", 0, true},
		{"1700000000", 1700000000, true},
		{"2024-01-01T00:00:00Z", 1704067200, true},
		{"yesterday", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestLoadStats(t *testing.T) {
	inTempDir(t)
	flags := pflag.NewFlagSet("stats", pflag.ContinueOnError)
	flags.String("window", "1h", "")
	flags.String("recompute-from", "", "")
	flags.String("pool", "", "")
	if err := flags.Parse([]string{"--window", "5m", "--recompute-from", "1700000000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadStats("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WindowSeconds != 300 || cfg.RecomputeFrom != 1700000000 || cfg.BatchSize != 1000 {
		t.Fatalf("unexpected stats config: %+v", cfg)
	}
	if cfg.Pool != (common.Address{}) {
		t.Fatalf("expected no pool filter, got %s", cfg.Pool.Hex())
	}

	if err := flags.Set("window", "500ms"); err != nil {
		t.Fatalf("set window: %v", err)
	}
	if _, err := LoadStats("", flags); err == nil {
		t.Fatalf("expected sub-second window error")
	}
}
