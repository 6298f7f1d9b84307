package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("service name propagates into logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "vbdiar"}
		cfg.ApplyDefaults()
		if cfg.Logging.ServiceName != "vbdiar" {
			t.Errorf("expected logging service name 'vbdiar', got %q", cfg.Logging.ServiceName)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", serviceConfig("svc", "development"), false, ""},
		{"valid staging", serviceConfig("svc", "staging"), false, ""},
		{"valid production", serviceConfig("svc", "production"), false, ""},
		{"missing name", serviceConfig("", "production"), true, "config.name is required"},
		{"invalid environment", serviceConfig("svc", "invalid"), true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// serviceConfig builds a ServiceConfig whose logging section passes
// validation, so the cases above exercise the base fields only.
func serviceConfig(name, env string) ServiceConfig {
	cfg := ServiceConfig{Name: name, Environment: env}
	cfg.Logging.ApplyDefaults()
	return cfg
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-service
environment: staging
version: "1.0.0"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg ServiceConfig
	err := LoadConfig("test-service", &cfg, WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "test-service" {
		t.Errorf("expected name 'test-service', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg ServiceConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	t.Run("cmd directory wins over repo root", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./cmd/vbdiar/config.yml": true,
			"./config.yml":            true,
		}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles("vbdiar", LoaderConfig{})
		if files.ConfigFile != "./cmd/vbdiar/config.yml" {
			t.Errorf("expected config file at ./cmd/vbdiar/config.yml, got %q", files.ConfigFile)
		}
	})

	t.Run("root config.yml is the fallback", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{"./config.yml": true}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles("vbdiar", LoaderConfig{})
		if files.ConfigFile != "./config.yml" {
			t.Errorf("expected config file at ./config.yml, got %q", files.ConfigFile)
		}
	})

	t.Run("binary-specific env file shadows the shared one", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./.env.vbdiar": true,
			"./.env":        true,
		}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles("vbdiar", LoaderConfig{})
		if files.EnvFile != "./.env.vbdiar" {
			t.Errorf("expected .env.vbdiar to win, got %q", files.EnvFile)
		}
	})

	t.Run("explicit paths bypass the search", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{"./config.yml": true}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles("vbdiar", LoaderConfig{ConfigFile: "/etc/vbdiar/config.yml"})
		if files.ConfigFile != "/etc/vbdiar/config.yml" {
			t.Errorf("expected explicit path, got %q", files.ConfigFile)
		}
	})
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"PORT", []string{"port"}},
		{"HTTP_PORT", []string{"http_port", "http.port"}},
		{"STORAGE_ACCESS_KEY", []string{
			"storage_access_key",
			"storage.access.key",
			"storage.access_key",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got := envKeyVariants(tc.key)
			for _, want := range tc.want {
				found := false
				for _, v := range got {
					if v == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("variants for %s missing %q (got %v)", tc.key, want, got)
				}
			}
		})
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
