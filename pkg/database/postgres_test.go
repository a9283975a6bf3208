package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wonny/clusterfolio/pkg/config"
)

func TestPoolConfigFor(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:             "postgres://user:pw@localhost:5432/clusterfolio",
		MaxConns:        7,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	}

	pc, err := poolConfigFor(cfg)
	if err != nil {
		t.Fatalf("poolConfigFor() failed: %v", err)
	}
	if pc.MaxConns != 7 || pc.MinConns != 2 {
		t.Errorf("conns = %d/%d, want 7/2", pc.MaxConns, pc.MinConns)
	}
	if pc.MaxConnLifetime != time.Hour || pc.MaxConnIdleTime != time.Minute {
		t.Errorf("lifetimes = %v/%v", pc.MaxConnLifetime, pc.MaxConnIdleTime)
	}
	if pc.ConnConfig.Database != "clusterfolio" {
		t.Errorf("database = %s, want clusterfolio", pc.ConnConfig.Database)
	}
}

func TestPoolConfigFor_NotConfigured(t *testing.T) {
	_, err := poolConfigFor(config.DatabaseConfig{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPoolConfigFor_BadURL(t *testing.T) {
	if _, err := poolConfigFor(config.DatabaseConfig{URL: "postgres://%zz"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestNew_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !status.Healthy {
		t.Error("Expected database to be healthy")
	}
	if status.Stats.MaxConns != 2 {
		t.Errorf("Expected MaxConns 2, got %d", status.Stats.MaxConns)
	}
}
