package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/lattixlab/calcdock/internal/domain"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs:    []string{"localhost:6379"},
			Username: "calcdock",
			Password: "secret",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("port zero", func(t *testing.T) {
		cfg := validConfig()
		cfg.HTTP.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected an error for port 0")
		}
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.HTTP.Port = 70000
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected an error for port 70000")
		}
	})

	t.Run("credentials without addrs", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Addrs = nil
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for credentials without addrs")
		}
		if !errors.Is(err, domain.ErrMalformedStoreConfig) {
			t.Errorf("expected ErrMalformedStoreConfig, got %v", err)
		}
	})

	t.Run("no store at all", func(t *testing.T) {
		cfg := Config{HTTP: HTTPConfig{Port: 8080}}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("local-file mode must validate, got %v", err)
		}
	})
}

func TestConfigured(t *testing.T) {
	if (DatabaseConfig{}).Configured() {
		t.Fatal("empty addrs must not count as configured")
	}
	if !(DatabaseConfig{Addrs: []string{"localhost:6379"}}).Configured() {
		t.Fatal("expected configured with addrs set")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected read timeout 10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected write timeout 120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected shutdown timeout 10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected readiness timeout 10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "calcdock:" {
		t.Errorf("expected key prefix calcdock:, got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Ingest.Assimilator != "jsondir" {
		t.Errorf("expected assimilator jsondir, got %q", cfg.Ingest.Assimilator)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{WriteTimeoutSec: 300},
		Storage: StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 300 {
		t.Errorf("expected write timeout 300, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected key prefix custom:, got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Run("set variable", func(t *testing.T) {
		t.Setenv("CALCDOCK_TEST_PASSWORD", "hunter2")
		got := string(expandEnvVars([]byte("password: ${CALCDOCK_TEST_PASSWORD}")))
		if got != "password: hunter2" {
			t.Errorf("unexpected expansion: %q", got)
		}
	})

	t.Run("unset variable", func(t *testing.T) {
		got := string(expandEnvVars([]byte("password: ${CALCDOCK_TEST_UNSET}")))
		if got != "password: " {
			t.Errorf("unexpected expansion: %q", got)
		}
	})

	t.Run("unset variable with default", func(t *testing.T) {
		got := string(expandEnvVars([]byte("level: ${CALCDOCK_TEST_LEVEL:-info}")))
		if got != "level: info" {
			t.Errorf("unexpected expansion: %q", got)
		}
	})

	t.Run("set variable with default", func(t *testing.T) {
		t.Setenv("CALCDOCK_TEST_LEVEL", "debug")
		got := string(expandEnvVars([]byte("level: ${CALCDOCK_TEST_LEVEL:-info}")))
		if got != "level: debug" {
			t.Errorf("unexpected expansion: %q", got)
		}
	})

	t.Run("multiple variables", func(t *testing.T) {
		t.Setenv("CALCDOCK_TEST_A", "first")
		t.Setenv("CALCDOCK_TEST_B", "second")
		got := string(expandEnvVars([]byte("${CALCDOCK_TEST_A} and ${CALCDOCK_TEST_B}")))
		if got != "first and second" {
			t.Errorf("unexpected expansion: %q", got)
		}
	})
}

func TestGetEnv(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("ENV", "")
		if got := GetEnv(); got != "local" {
			t.Errorf("expected local, got %q", got)
		}
	})

	t.Run("explicit", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		if got := GetEnv(); got != "prod" {
			t.Errorf("expected prod, got %q", got)
		}
	})
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Configured() {
		t.Error("local config must run in local-file mode")
	}
	if cfg.Ingest.Assimilator != "jsondir" {
		t.Errorf("expected assimilator jsondir, got %q", cfg.Ingest.Assimilator)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist")
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error message: %v", err)
	}
}
