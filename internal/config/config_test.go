package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("DASHBOARD_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.DashboardPIN != "" {
		t.Fatalf("expected empty DASHBOARD_PIN when unset, got %q", cfg.DashboardPIN)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "")
	t.Setenv("STATS_CACHE_TTL_SECONDS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RefreshIntervalSeconds != 5 || cfg.StatsCacheTTLSeconds != 5 {
		t.Fatalf("unexpected interval defaults %d / %d", cfg.RefreshIntervalSeconds, cfg.StatsCacheTTLSeconds)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL_SECONDS", "nope")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-3")

	cfg := Load()
	if cfg.RefreshIntervalSeconds != 5 {
		t.Fatalf("expected fallback refresh 5, got %d", cfg.RefreshIntervalSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback token ttl 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}
