package config

import "testing"

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_CacheDriver(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{"memory", nil, false},
		{"redis", []string{"localhost:6379"}, false},
		{"valkey", []string{"localhost:6379"}, false},
		{"redis", nil, true},
		{"memcached", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = tc.driver
			cfg.Cache.Addrs = tc.addrs

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_Backend(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.URL = "localhost:8089"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for URL without scheme")
	}

	cfg = validConfig()
	cfg.Backend.URL = "https://localhost:8089"
	cfg.Backend.Retry.JitterFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for jitter above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.TTLSec != 600 {
		t.Errorf("expected TTLSec=600, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Cache.Capacity != 10000 {
		t.Errorf("expected Capacity=10000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Backend.TimeoutSec != 10 {
		t.Errorf("expected TimeoutSec=10, got %d", cfg.Backend.TimeoutSec)
	}
	if cfg.Backend.Retry.MaxAttempts != 3 || cfg.Backend.Retry.Multiplier != 2 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Backend.Retry)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Cache:   CacheConfig{Driver: "redis", TTLSec: 60, Capacity: 5},
		Backend: BackendConfig{Retry: RetryConfig{MaxAttempts: 1}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.TTLSec != 60 || cfg.Cache.Capacity != 5 {
		t.Errorf("cache overridden: %+v", cfg.Cache)
	}
	if cfg.Backend.Retry.MaxAttempts != 1 {
		t.Errorf("expected MaxAttempts=1, got %d", cfg.Backend.Retry.MaxAttempts)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEARCHLANG_TEST_KEY", "abc")

	tests := []struct {
		in   string
		want string
	}{
		{"key: ${SEARCHLANG_TEST_KEY}", "key: abc"},
		{"key: ${SEARCHLANG_TEST_UNSET:-fallback}", "key: fallback"},
		{"key: ${SEARCHLANG_TEST_UNSET}", "key: "},
		{"key: plain", "key: plain"},
	}

	for _, tc := range tests {
		if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Cache.Driver)
	}
}
