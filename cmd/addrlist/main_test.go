package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eugenetaranov/addrlist/internal/job"
)

func newRunFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	addRunFlags(fs)
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return fs
}

func TestLoadJobFromFlags(t *testing.T) {
	t.Setenv(job.PasswordEnv, "from-env")

	fs := newRunFlags(t, "-H", "192.168.88.1", "-u", "admin", "-l", "blocklist", "-t", "1d 00:00:10", "--delay", "250ms", "--strict")
	j, err := loadJob(fs, []string{"blocked.txt"})
	if err != nil {
		t.Fatalf("loadJob() error: %v", err)
	}

	if j.Host != "192.168.88.1" || j.User != "admin" || j.List != "blocklist" {
		t.Errorf("unexpected job: %+v", j)
	}
	if j.GetPort() != job.DefaultPort {
		t.Errorf("port = %d, want %d", j.GetPort(), job.DefaultPort)
	}
	if j.Password != "from-env" {
		t.Errorf("password = %q, want value from %s", j.Password, job.PasswordEnv)
	}
	if j.Timeout != "1d 00:00:10" {
		t.Errorf("timeout = %q", j.Timeout)
	}
	if j.GetDelay() != 250*time.Millisecond {
		t.Errorf("delay = %v, want 250ms", j.GetDelay())
	}
	if !j.Strict {
		t.Error("strict not set")
	}
	if j.Source != "blocked.txt" {
		t.Errorf("source = %q", j.Source)
	}
}

func TestLoadJobFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	content := `host: router.lan
port: 2222
user: admin
password: secret
list: from-file
source: addresses.txt
delay: 1s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := newRunFlags(t, "--job", path, "-l", "from-flag")
	j, err := loadJob(fs, nil)
	if err != nil {
		t.Fatalf("loadJob() error: %v", err)
	}

	if j.List != "from-flag" {
		t.Errorf("list = %q, want flag value", j.List)
	}
	if j.GetPort() != 2222 {
		t.Errorf("port = %d, want 2222 from file", j.GetPort())
	}
	if j.GetDelay() != time.Second {
		t.Errorf("delay = %v, want 1s from file", j.GetDelay())
	}
	if j.Password != "secret" {
		t.Errorf("password = %q, want file value", j.Password)
	}
	if j.Source != filepath.Join(dir, "addresses.txt") {
		t.Errorf("source = %q, want path relative to the job file", j.Source)
	}
}

func TestLoadJobInvalid(t *testing.T) {
	t.Setenv(job.PasswordEnv, "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing host", []string{"-u", "admin", "--password", "x", "-l", "l"}},
		{"missing password", []string{"-H", "r1", "-u", "admin", "-l", "l"}},
		{"unsafe list name", []string{"-H", "r1", "-u", "admin", "--password", "x", "-l", "a;b"}},
		{"bad port", []string{"-H", "r1", "-u", "admin", "--password", "x", "-l", "l", "-p", "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newRunFlags(t, tt.args...)
			if _, err := loadJob(fs, []string{"a.txt"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadJobDotEnv(t *testing.T) {
	t.Setenv(job.PasswordEnv, "")
	os.Unsetenv(job.PasswordEnv)

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(job.PasswordEnv+"=dotenv-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := newRunFlags(t, "--env-file", envFile, "-H", "r1", "-u", "admin", "-l", "blocklist")
	j, err := loadJob(fs, []string{"a.txt"})
	if err != nil {
		t.Fatalf("loadJob() error: %v", err)
	}
	if j.Password != "dotenv-secret" {
		t.Errorf("password = %q, want value from .env", j.Password)
	}
}

func runValidate(t *testing.T, content string, flags map[string]string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	addValidateFlags(cmd.Flags())
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("Set(%s) error: %v", name, err)
		}
	}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	err := validateFiles(cmd, []string{path})
	return buf.String(), err
}

func TestValidateFiles(t *testing.T) {
	out, err := runValidate(t, "10.0.0.1, example.com", map[string]string{"list": "blocklist", "timeout": "2d 00:37:25"})
	if err != nil {
		t.Fatalf("validateFiles() error: %v", err)
	}

	for _, want := range []string{
		"addresses.txt",
		"✓ 10.0.0.1",
		"/ip firewall address-list add address=example.com list=blocklist timeout=2d00:37:25",
		"All 2 address(es) valid.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestValidateFilesInvalid(t *testing.T) {
	out, err := runValidate(t, "10.0.0.1\nfe80::1%x ; /system reset-configuration", nil)
	if err == nil {
		t.Fatal("expected error for invalid address")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "✗ fe80::1%x ; /system reset-configuration") {
		t.Errorf("expected invalid verdict, got %q", out)
	}
	if strings.Contains(out, "address=fe80") {
		t.Errorf("no command may be built for an invalid address: %q", out)
	}
}
