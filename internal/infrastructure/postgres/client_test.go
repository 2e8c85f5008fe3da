package postgres

import (
	"testing"
	"time"

	"github.com/fastygo/taskboard/internal/config"
)

func TestPoolConfigFromSettings(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "db.internal",
		Port:            "6432",
		Name:            "taskboard",
		User:            "board",
		Password:        "secret",
		SSLMode:         "disable",
		MaxOpenConns:    8,
		MaxIdleConns:    20,
		MaxConnLifetime: time.Minute,
	}

	pgxCfg, err := PoolConfig(cfg, "taskboard-api")
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if pgxCfg.ConnConfig.Host != "db.internal" || pgxCfg.ConnConfig.Port != 6432 || pgxCfg.ConnConfig.Database != "taskboard" {
		t.Errorf("conn = %s:%d/%s", pgxCfg.ConnConfig.Host, pgxCfg.ConnConfig.Port, pgxCfg.ConnConfig.Database)
	}
	if pgxCfg.MaxConns != 8 {
		t.Errorf("MaxConns = %d, want 8", pgxCfg.MaxConns)
	}
	if pgxCfg.MinConns != 8 {
		t.Errorf("MinConns = %d, want it capped at MaxConns", pgxCfg.MinConns)
	}
	if pgxCfg.MaxConnLifetime != time.Minute {
		t.Errorf("MaxConnLifetime = %v", pgxCfg.MaxConnLifetime)
	}
	if got := pgxCfg.ConnConfig.RuntimeParams["application_name"]; got != "taskboard-api" {
		t.Errorf("application_name = %q", got)
	}
}

func TestPoolConfigPrefersURL(t *testing.T) {
	cfg := config.DatabaseConfig{URL: "postgres://u:p@url-host:5432/fromurl?sslmode=disable", Host: "ignored"}
	pgxCfg, err := PoolConfig(cfg, "")
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if pgxCfg.ConnConfig.Host != "url-host" || pgxCfg.ConnConfig.Database != "fromurl" {
		t.Errorf("conn = %s/%s, want url-host/fromurl", pgxCfg.ConnConfig.Host, pgxCfg.ConnConfig.Database)
	}
	if _, ok := pgxCfg.ConnConfig.RuntimeParams["application_name"]; ok {
		t.Error("application_name set without an app name")
	}
}

func TestPoolConfigRejectsGarbage(t *testing.T) {
	if _, err := PoolConfig(config.DatabaseConfig{URL: "postgres://%zz"}, ""); err == nil {
		t.Fatal("expected parse error")
	}
}
