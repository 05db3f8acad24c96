package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type endpointSection struct {
	URL       string `koanf:"url"`
	Protocols string `koanf:"protocols"`
}

type serverSection struct {
	URLs              string                     `koanf:"urls"`
	PreferHostingURLs bool                       `koanf:"prefer_hosting_urls"`
	Endpoints         map[string]endpointSection `koanf:"endpoints"`
}

type fixture struct {
	Server serverSection `koanf:"server"`
	Log    struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bindplan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const endpointsYAML = `
server:
  urls: "http://*:5080"
  endpoints:
    Plain:
      url: "http://127.0.0.1:5081"
    Secure:
      url: "https://localhost:5443"
      protocols: "Http2"
log:
  level: debug
`

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix || l.filePath != "" {
		t.Errorf("NewLoader() = prefix %q file %q", l.envPrefix, l.filePath)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/bindplan.yaml"))
	if l.envPrefix != "TEST_" || l.FilePath() != "/etc/bindplan.yaml" {
		t.Errorf("options not applied: prefix %q file %q", l.envPrefix, l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader(WithConfigFile(writeYAML(t, endpointsYAML)))

	var cfg fixture
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URLs != "http://*:5080" || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Server.Endpoints) != 2 {
		t.Fatalf("endpoints = %v", cfg.Server.Endpoints)
	}
	if ep := cfg.Server.Endpoints["Secure"]; ep.URL != "https://localhost:5443" || ep.Protocols != "Http2" {
		t.Errorf("Secure = %+v", ep)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	if err := NewLoader().LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	var cfg fixture
	if err := NewLoader(WithConfigFile(writeYAML(t, "server: [unclosed"))).Load(&cfg); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("BINDPLAN_SERVER__URLS", "http://+:6000")
	t.Setenv("BINDPLAN_SERVER__PREFER_HOSTING_URLS", "true")
	t.Setenv("BINDPLAN_SERVER__ENDPOINTS__PLAIN__URL", "http://127.0.0.1:6001")

	var cfg fixture
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URLs != "http://+:6000" || !cfg.Server.PreferHostingURLs {
		t.Errorf("server = %+v", cfg.Server)
	}
	if got := cfg.Server.Endpoints["plain"].URL; got != "http://127.0.0.1:6001" {
		t.Errorf("endpoint url = %q", got)
	}
}

func TestLoader_LoadEnv_OverridesFileEndpoint(t *testing.T) {
	t.Setenv("BINDPLAN_SERVER__ENDPOINTS__SECURE__URL", "https://127.0.0.1:6443")
	t.Setenv("BINDPLAN_SERVER__ENDPOINTS__EXTRA__URL", "http://127.0.0.1:6002")

	var cfg fixture
	if err := NewLoader(WithConfigFile(writeYAML(t, endpointsYAML))).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Server.Endpoints) != 3 {
		t.Fatalf("endpoints = %v, want Plain, Secure and extra", cfg.Server.Endpoints)
	}
	secure := cfg.Server.Endpoints["Secure"]
	if secure.URL != "https://127.0.0.1:6443" {
		t.Errorf("Secure url = %q, env should override the file", secure.URL)
	}
	if secure.Protocols != "Http2" {
		t.Errorf("Secure protocols = %q, file fields not overridden should stay", secure.Protocols)
	}
	if _, ok := cfg.Server.Endpoints["secure"]; ok {
		t.Error("env created a second endpoint instead of overriding Secure")
	}
	if cfg.Server.Endpoints["extra"].URL != "http://127.0.0.1:6002" {
		t.Errorf("new env endpoint = %+v", cfg.Server.Endpoints["extra"])
	}
}

func TestCanonicalKey(t *testing.T) {
	tree := map[string]any{
		"server": map[string]any{
			"endpoints": map[string]any{
				"Primary": map[string]any{"url": "x"},
				"beta":    map[string]any{},
				"Beta":    map[string]any{},
			},
		},
	}
	tests := map[string]string{
		"server.endpoints.primary.url": "server.endpoints.Primary.url",
		"server.endpoints.PRIMARY.url": "server.endpoints.Primary.url",
		"server.endpoints.beta.url":    "server.endpoints.beta.url",
		"server.endpoints.BETA.url":    "server.endpoints.Beta.url",
		"server.endpoints.new.url":     "server.endpoints.new.url",
		"log.level":                    "log.level",
	}
	for in, want := range tests {
		if got := canonicalKey(tree, in); got != want {
			t.Errorf("canonicalKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG__LEVEL", "warn")
	t.Setenv("BINDPLAN_LOG__LEVEL", "error")

	var cfg fixture
	if err := NewLoader(WithEnvPrefix("MYAPP_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	tests := map[string]string{
		"BINDPLAN_SERVER__URLS":                "server.urls",
		"BINDPLAN_SERVER__PREFER_HOSTING_URLS": "server.prefer_hosting_urls",
		"BINDPLAN_LOG__LEVEL":                  "log.level",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_Precedence(t *testing.T) {
	path := writeYAML(t, endpointsYAML)
	t.Setenv("BINDPLAN_SERVER__URLS", "http://from-env:5080")

	l := NewLoader(WithConfigFile(path))
	var cfg fixture
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URLs != "http://from-env:5080" {
		t.Fatalf("URLs = %q, env should override the file", cfg.Server.URLs)
	}

	if err := l.LoadMap(map[string]any{"server.urls": "http://from-flag:5080"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.URLs != "http://from-flag:5080" {
		t.Errorf("URLs = %q, flags should override env", cfg.Server.URLs)
	}
	if cfg.Server.Endpoints["Plain"].URL != "http://127.0.0.1:5081" {
		t.Errorf("file endpoints lost after overrides: %v", cfg.Server.Endpoints)
	}
}

func TestLoader_LoadMap_Nested(t *testing.T) {
	l := NewLoader()
	err := l.LoadMap(map[string]any{
		"server.prefer_hosting_urls": true,
		"server.endpoints.api.url":   "http://[::1]:7000",
		"log.level":                  "error",
	})
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg fixture
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !cfg.Server.PreferHostingURLs || cfg.Log.Level != "error" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.Endpoints["api"].URL != "http://[::1]:7000" {
		t.Errorf("endpoints = %v", cfg.Server.Endpoints)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	cfg := fixture{Server: serverSection{URLs: "http://localhost:5080"}}
	cfg.Log.Level = "info"

	if err := NewLoader(WithConfigFile(writeYAML(t, "log:\n  level: warn\n"))).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URLs != "http://localhost:5080" {
		t.Errorf("URLs = %q, unset keys should keep their value", cfg.Server.URLs)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
}

func TestOverrides_ReadBytes(t *testing.T) {
	if _, err := (overrides{}).ReadBytes(); err == nil {
		t.Error("ReadBytes() should fail")
	}
}
