package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPanic bool
	}{
		{name: "variable set", value: "redis:6379", wantPanic: false},
		{name: "variable not set", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITEFLEET_TEST_VAR", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv("SITEFLEET_TEST_VAR")
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  int
		wantPanic bool
	}{
		{name: "valid integer", value: "3", expected: 3},
		{name: "invalid integer", value: "three", wantPanic: true},
		{name: "missing variable", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITEFLEET_TEST_INT", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt("SITEFLEET_TEST_INT")
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "90s", def: time.Second, expected: 90 * time.Second},
		{name: "invalid duration uses default", value: "soon", def: time.Hour, expected: time.Hour},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITEFLEET_TEST_DURATION", tt.value)

			if result := mustDuration("SITEFLEET_TEST_DURATION", tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "numeric false", value: "0", def: true, expected: false},
		{name: "invalid value uses default", value: "maybe", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITEFLEET_TEST_BOOL", tt.value)

			if result := mustBool("SITEFLEET_TEST_BOOL", tt.def); result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{input: "", expected: nil},
		{input: "plans.sitefleet.io", expected: []string{"plans.sitefleet.io"}},
		{input: ` "10.0.0.0/8", '192.168.1.4' ,`, expected: []string{"10.0.0.0/8", "192.168.1.4"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.expected, splitAndTrim(tt.input)); diff != "" {
			t.Errorf("splitAndTrim(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestLoadPlanning(t *testing.T) {
	t.Setenv("SITEFLEET_ENV", "prod")
	t.Setenv("SITEFLEET_SUBDOMAIN", "")
	t.Setenv("SITEFLEET_LEGACY_REPLICATION", "true")
	t.Setenv("SITEFLEET_DEDICATED_DATABASES", "")
	t.Setenv("SITEFLEET_PLATFORM_FILE", "/etc/sitefleet/platform.yaml")
	t.Setenv("SITEFLEET_LOG_LEVEL", "")
	t.Setenv("SITEFLEET_PRETTY_LOG", "")

	got := LoadPlanning()
	want := Planning{
		LogLevel:          "info",
		PrettyLog:         true,
		PlatformFile:      "/etc/sitefleet/platform.yaml",
		Environment:       "prod",
		LegacyReplication: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadPlanning() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRequiresRedisPassword(t *testing.T) {
	t.Setenv("SITEFLEET_REDIS_ADDR", "localhost:6379")
	t.Setenv("SITEFLEET_REDIS_DB", "0")
	t.Setenv("SITEFLEET_REDIS_PASSWORD_REQUIRED", "true")
	t.Setenv("SITEFLEET_REDIS_PASSWORD", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic without a redis password")
		}
	}()
	Load()
}

func TestLoad(t *testing.T) {
	t.Setenv("SITEFLEET_LOG_LEVEL", "info")
	t.Setenv("SITEFLEET_REDIS_ADDR", "localhost:6379")
	t.Setenv("SITEFLEET_REDIS_DB", "2")
	t.Setenv("SITEFLEET_REDIS_PASSWORD_REQUIRED", "false")
	t.Setenv("SITEFLEET_ALLOWED_CIDRS", "10.0.0.0/8, 172.16.0.0/12")
	t.Setenv("SITEFLEET_RELOAD_INTERVAL", "5m")

	cfg := Load()
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, want 2", cfg.RedisDB)
	}
	if cfg.ReloadInterval != 5*time.Minute {
		t.Errorf("ReloadInterval = %v, want 5m", cfg.ReloadInterval)
	}
	if diff := cmp.Diff([]string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.AllowedCIDRS); diff != "" {
		t.Errorf("AllowedCIDRS mismatch (-want +got):\n%s", diff)
	}
}
