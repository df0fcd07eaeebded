package db

import (
	"testing"
	"time"

	"github.com/yigit/schoolhub/internal/config"
)

func postgresConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.DBName = "schoolhub"
	cfg.Database.SSLMode = "disable"
	return cfg
}

func TestPoolConfigFromDatabaseSection(t *testing.T) {
	cfg := postgresConfig()
	cfg.Database.MaxOpenConns = 12
	cfg.Database.MaxIdleConns = 3
	cfg.Database.ConnMaxLifetime = "45m"
	cfg.Database.ConnMaxIdleTime = "5m"
	cfg.Database.HealthCheck = "20s"
	cfg.Database.ApplicationName = "schoolhub-test"

	pc, err := PoolConfig(cfg)
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if pc.MaxConns != 12 || pc.MinConns != 3 {
		t.Fatalf("conns = %d/%d", pc.MaxConns, pc.MinConns)
	}
	if pc.MaxConnLifetime != 45*time.Minute || pc.MaxConnIdleTime != 5*time.Minute || pc.HealthCheckPeriod != 20*time.Second {
		t.Fatalf("durations = %v %v %v", pc.MaxConnLifetime, pc.MaxConnIdleTime, pc.HealthCheckPeriod)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "schoolhub-test" {
		t.Fatalf("application_name = %q", got)
	}
	if pc.ConnConfig.Database != "schoolhub" || pc.ConnConfig.Host != "localhost" {
		t.Fatalf("connection = %s@%s", pc.ConnConfig.Database, pc.ConnConfig.Host)
	}
}

func TestPoolConfigFallbacks(t *testing.T) {
	cfg := postgresConfig()
	cfg.Database.MaxOpenConns = 2
	cfg.Database.MaxIdleConns = 10
	cfg.Database.ConnMaxLifetime = "soon"

	pc, err := PoolConfig(cfg)
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if pc.MinConns != 2 {
		t.Fatalf("min conns must not exceed max, got %d", pc.MinConns)
	}
	if pc.MaxConnLifetime != time.Hour || pc.MaxConnIdleTime != 30*time.Minute || pc.HealthCheckPeriod != time.Minute {
		t.Fatalf("durations = %v %v %v", pc.MaxConnLifetime, pc.MaxConnIdleTime, pc.HealthCheckPeriod)
	}
}
