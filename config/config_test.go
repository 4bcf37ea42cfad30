package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig creates a configuration file with the given content and
// returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `optionflow:
  name: "TestApp"
  version: "1.0"
processor:
  max_workers: 2
  batch_size: 10
  batch_timeout: 250ms
commission:
  long: 0.001
  short: 0.002
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Optionflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Optionflow.Name)
	}
	if cfg.Processor.MaxWorkers != 2 || cfg.Processor.BatchTimeout != 250*time.Millisecond {
		t.Errorf("unexpected processor config: %+v", cfg.Processor)
	}
	if cfg.Commission.Short != 0.002 {
		t.Errorf("unexpected commission: %+v", cfg.Commission)
	}
	// Defaults survive for keys the file leaves out.
	if cfg.Channels.RawBuffer != 256 || cfg.Writer.Formats.Parquet.Compression != "snappy" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Channels, cfg.Writer.Formats)
	}
}

func TestLoadConfigSnapshotFromEnv(t *testing.T) {
	t.Setenv("OPTIONFLOW_SNAPSHOT", " quotes.yml ")
	path := writeTempConfig(t, "optionflow:\n  name: app\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Reader.Snapshot != "quotes.yml" {
		t.Errorf("unexpected snapshot: %q", cfg.Reader.Snapshot)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"workers":     "processor:\n  max_workers: 0\n",
		"compression": "writer:\n  formats:\n    parquet:\n      compression: brotli\n",
		"rank":        "report:\n  rank_by: delta\n",
		"stats":       "channels:\n  stats_interval: -5s\n",
		"spread":      "reader:\n  validation:\n    max_spread_percentage: -1\n",
		"s3":          "storage:\n  s3:\n    enabled: true\n    bucket: Bad_Bucket\n    region: eu-west-1\n    access_key_id: a\n    secret_access_key: b\n",
	}
	for name, content := range cases {
		path := writeTempConfig(t, content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadUniverse(t *testing.T) {
	path := writeTempConfig(t, `groups:
- name: tech
  underlyings: ["ACME", "GLOBEX", " ACME "]
- name: energy
  underlyings: ["INITECH"]
`)
	u, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse failed: %v", err)
	}
	syms := u.Symbols()
	if len(syms) != 3 || syms[0] != "ACME" || syms[2] != "INITECH" {
		t.Errorf("unexpected symbols: %v", syms)
	}

	bad := writeTempConfig(t, "groups:\n- underlyings: [\"X\"]\n")
	if _, err := LoadUniverse(bad); err == nil {
		t.Errorf("expected error for unnamed group")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if got := ResolveConfigPath(""); got != "config/config.production.yml" {
		t.Errorf("ResolveConfigPath(\"\") = %s", got)
	}
	if got := ResolveConfigPath("custom.yml"); got != "custom.yml" {
		t.Errorf("explicit path overridden: %s", got)
	}
	t.Setenv("APP_ENV", "")
	if got := ResolveConfigPath(""); got != DefaultConfigPath {
		t.Errorf("development path = %s", got)
	}
	if !IsProductionLike(EnvironmentStaging) || IsProductionLike(EnvironmentDevelopment) {
		t.Errorf("unexpected IsProductionLike results")
	}
}
