package magiclink

import "testing"

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IMMERSIONFLOW_JWT_SECRET", "env-secret")
	t.Setenv("IMMERSIONFLOW_MAGIC_LINK_BASE_URL", "https://links.example.com")
	t.Setenv("IMMERSIONFLOW_MAGIC_LINK_SHORT_DAYS", "3")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("unexpected secret %q", cfg.JWTSecret)
	}
	if cfg.BaseURL != "https://links.example.com" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.ShortLifetimeDays != 3 || cfg.LongLifetimeDays != 31 {
		t.Errorf("unexpected lifetimes %d/%d", cfg.ShortLifetimeDays, cfg.LongLifetimeDays)
	}
}

func TestLoadConfigFromEnv_RequiresSecret(t *testing.T) {
	t.Setenv("IMMERSIONFLOW_JWT_SECRET", "")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected error without a secret")
	}
}

func TestLoadConfigFromEnv_DefensiveLifetimes(t *testing.T) {
	t.Setenv("IMMERSIONFLOW_JWT_SECRET", "env-secret")
	t.Setenv("IMMERSIONFLOW_MAGIC_LINK_SHORT_DAYS", "-1")
	t.Setenv("IMMERSIONFLOW_MAGIC_LINK_LONG_DAYS", "0")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.ShortLifetimeDays != 7 || cfg.LongLifetimeDays != 31 {
		t.Errorf("expected defaults restored, got %d/%d", cfg.ShortLifetimeDays, cfg.LongLifetimeDays)
	}
}
