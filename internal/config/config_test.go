package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Scan.Category != "sports" || cfg.Scan.MaxMarkets != 500 || cfg.Scan.MinEdge != 0.01 || cfg.Scan.Stake != 100 {
		t.Errorf("unexpected scan defaults: %+v", cfg.Scan)
	}
	if cfg.Scan.PageSize != 200 {
		t.Errorf("page size = %d, want 200", cfg.Scan.PageSize)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "polyarb.toml", `
mode = "monitor"

[scan]
category = "politics"
min_edge = 0.02
stake = 250.0
interval = "45s"

[redis]
enabled = true
addr = "redis:6379"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "monitor" || cfg.Scan.Category != "politics" {
		t.Errorf("got mode %q category %q", cfg.Mode, cfg.Scan.Category)
	}
	if cfg.Scan.MinEdge != 0.02 || cfg.Scan.Stake != 250 {
		t.Errorf("got min_edge %v stake %v", cfg.Scan.MinEdge, cfg.Scan.Stake)
	}
	if cfg.Scan.Interval.Duration != 45*time.Second {
		t.Errorf("interval = %v, want 45s", cfg.Scan.Interval.Duration)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	// Untouched values keep their defaults.
	if cfg.Scan.MaxMarkets != 500 {
		t.Errorf("max_markets = %d, want default 500", cfg.Scan.MaxMarkets)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "polyarb.yaml", `
mode: server
scan:
  categories: [sports, crypto]
  max_markets: 50
  cache_ttl: 2m
server:
  port: 9090
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Scan.CategoryList(); len(got) != 2 || got[0] != "sports" || got[1] != "crypto" {
		t.Errorf("categories = %v", got)
	}
	if cfg.Scan.MaxMarkets != 50 || cfg.Server.Port != 9090 {
		t.Errorf("got max_markets %d port %d", cfg.Scan.MaxMarkets, cfg.Server.Port)
	}
	if cfg.Scan.CacheTTL.Duration != 2*time.Minute {
		t.Errorf("cache_ttl = %v, want 2m", cfg.Scan.CacheTTL.Duration)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("missing default file should fall back to defaults: %v", err)
	}
	if cfg.Scan.Category != "sports" {
		t.Errorf("category = %q, want sports", cfg.Scan.Category)
	}

	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLYARB_SCAN_MIN_EDGE", "0.05")
	t.Setenv("POLYARB_SCAN_CATEGORIES", "sports, ,nba")
	t.Setenv("POLYARB_SCAN_INTERVAL", "10s")
	t.Setenv("POLYARB_SCAN_MAX_MARKETS", "not-a-number")
	t.Setenv("POLYARB_POSTGRES_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.MinEdge != 0.05 {
		t.Errorf("min_edge = %v, want 0.05", cfg.Scan.MinEdge)
	}
	if got := cfg.Scan.Categories; len(got) != 2 || got[1] != "nba" {
		t.Errorf("categories = %v", got)
	}
	if cfg.Scan.Interval.Duration != 10*time.Second {
		t.Errorf("interval = %v", cfg.Scan.Interval.Duration)
	}
	if cfg.Scan.MaxMarkets != 500 {
		t.Errorf("unparsable override should be ignored, got %d", cfg.Scan.MaxMarkets)
	}
	if !cfg.Postgres.Enabled {
		t.Error("postgres should be enabled")
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := Defaults()
	cat := "sports,politics"
	edge := 0.0
	stake := 42.0
	mode := "full"
	Overrides{Category: &cat, MinEdge: &edge, Stake: &stake, Mode: &mode, Verbose: true}.Apply(&cfg)

	if got := cfg.Scan.CategoryList(); len(got) != 2 || got[1] != "politics" {
		t.Errorf("categories = %v", got)
	}
	if cfg.Scan.MinEdge != 0 || cfg.Scan.Stake != 42 || cfg.Mode != "full" || cfg.LogLevel != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	single := "crypto"
	Overrides{Category: &single}.Apply(&cfg)
	if got := cfg.Scan.CategoryList(); len(got) != 1 || got[0] != "crypto" {
		t.Errorf("categories = %v", got)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Scan.Stake = 0
	cfg.Scan.MaxMarkets = 0
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	cfg.Notify.TelegramToken = "token"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown mode", "stake", "max_markets", "redis: addr", "telegram_chat_id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateSkipsDisabledInfra(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Host = ""
	cfg.S3.Bucket = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled backends should not be validated: %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "tok"
	out := RedactedConfig(&cfg)
	if out.Postgres.Password != redacted || out.Notify.TelegramToken != redacted {
		t.Errorf("secrets not redacted: %+v", out)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original mutated")
	}
	if out.S3.SecretKey != "" {
		t.Error("empty secret should stay empty")
	}
}
