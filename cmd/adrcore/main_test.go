package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-for-development-only-32+"

// writeConfig writes a minimal configuration into a temp dir and returns
// its path. The broker port is unreachable.
func writeConfig(t *testing.T, secret string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  path: "` + filepath.Join(tmpDir, "adr.db") + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "adrcore-test"
  qos: 1

logging:
  level: error
  format: text
  output: stdout

api:
  enabled: false

security:
  jwt:
    secret: "` + secret + `"

units:
  - name: adr1
    peripherals:
      lakeshore: {service: ls218, device: LS218}
      magnet: {service: ps, device: "Agilent 6641A"}
  - name: adr2
    hands_off: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// execute runs the command tree with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("ADR_CONFIG", "")
	if got := getConfigPath(""); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("ADR_CONFIG", "/custom/path/config.yaml")
	if got := getConfigPath(""); got != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() with env = %q", got)
	}
	if got := getConfigPath("flag.yaml"); got != "flag.yaml" {
		t.Errorf("getConfigPath() with flag = %q, want flag.yaml", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("loadDotEnv() missing file error = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ADRCORE_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ADRCORE_TEST_DOTENV") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}
	if got := os.Getenv("ADRCORE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("ADRCORE_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_BrokerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := run(ctx, writeConfig(t, ""))
	if err == nil || !strings.Contains(err.Error(), "MQTT") {
		t.Errorf("run() error = %v, want MQTT connection failure", err)
	}
}

func TestCheckConfigCmd(t *testing.T) {
	out, err := execute(t, "check-config", "--config", writeConfig(t, ""))
	if err != nil {
		t.Fatalf("check-config error = %v", err)
	}
	for _, want := range []string{": ok", "adr1 (live, 2 peripherals)", "adr2 (hands-off, 0 peripherals)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	if _, err := execute(t, "check-config", "--config", "/nonexistent.yaml"); err == nil {
		t.Error("check-config with missing file should fail")
	}
}

func TestTokenCmd(t *testing.T) {
	out, err := execute(t, "token", "--config", writeConfig(t, testSecret), "--subject", "alice")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("token = %q, want a three part JWT", out)
	}

	if _, err := execute(t, "token", "--config", writeConfig(t, "")); err == nil {
		t.Error("token without a configured secret should fail")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "adrcore "+version) {
		t.Errorf("version output = %q", out)
	}
}
