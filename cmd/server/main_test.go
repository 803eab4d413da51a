package main

import (
	"testing"

	"restodash/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := []config.Config{
		{AuthSecret: "short", DashboardPIN: "7391"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", DashboardPIN: "1234"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", DashboardPIN: "8888"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", DashboardPIN: "9876"},
		{AuthSecret: "0123456789abcdef0123456789abcdef", DashboardPIN: "12"},
	}
	for _, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("expected weak config to be rejected: %+v", cfg)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:   "0123456789abcdef0123456789abcdef",
		DashboardPIN: "7391",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
