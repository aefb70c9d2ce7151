package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.CORSOrigin != "http://localhost:5173" {
		t.Errorf("cors origin: got %q", cfg.CORSOrigin)
	}
	if cfg.Mongo.Database != "taskManager" || cfg.Mongo.Timeout != 10*time.Second {
		t.Errorf("mongo: got %+v", cfg.Mongo)
	}
	if cfg.Realtime.Backend != BackendRedis || cfg.Realtime.Channel != "taskboard:events" {
		t.Errorf("realtime: got %+v", cfg.Realtime)
	}
	if cfg.Realtime.SubscriberBuffer != 64 {
		t.Errorf("realtime sizing: got %+v", cfg.Realtime)
	}
	if cfg.IsProduction() {
		t.Error("default env is development")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":              "8081",
		"ENV":               "Production",
		"CORS_ORIGIN":       "https://a.example, https://b.example",
		"REDIS_PASSWORD":    "s3cret",
		"BROADCAST_BACKEND": "local",
		"SHUTDOWN_TIMEOUT":  "3s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8081" || !cfg.IsProduction() {
		t.Errorf("unexpected config: %+v", cfg)
	}
	origins := cfg.CORSOrigins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("origins: got %v", origins)
	}
	if cfg.Redis.Password != "s3cret" || cfg.Realtime.Backend != BackendLocal || cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":  {"BROADCAST_BACKEND": "kafka"},
		"negative buffer":  {"SUBSCRIBER_BUFFER": "-1"},
		"malformed number": {"REDIS_DB": "one"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
