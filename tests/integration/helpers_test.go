package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// execInContainer runs a command in the container and returns stdout
func execInContainer(ctx context.Context, container testcontainers.Container, cmd []string) (int, string, error) {
	exitCode, reader, err := container.Exec(ctx, cmd)
	if err != nil {
		return exitCode, "", err
	}

	// Demux the Docker stream (stdout/stderr are multiplexed)
	var stdout, stderr bytes.Buffer
	_, _ = stdcopy.StdCopy(&stdout, &stderr, reader)

	return exitCode, stdout.String(), nil
}

// installRouterStub puts an executable /ip in the container that logs its
// arguments to path and rejects any address containing reject.
func installRouterStub(t *testing.T, ctx context.Context, container testcontainers.Container, path, reject string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"case \"$*\" in *" + reject + "*) echo 'failure: already have such entry' >&2; exit 1;; esac\n" +
		"echo \"$*\" >> " + path + "\n"

	exitCode, _, err := execInContainer(ctx, container, []string{
		"sh", "-c", "cat > /ip <<'EOF'\n" + script + "EOF\nchmod 755 /ip",
	})
	require.NoError(t, err)
	require.Equal(t, 0, exitCode, "failed to install /ip stub")
}

// assertFileContains checks that a file contains all expected substrings
func assertFileContains(t *testing.T, ctx context.Context, container testcontainers.Container, path string, expected []string) {
	t.Helper()
	exitCode, content, err := execInContainer(ctx, container, []string{"cat", path})
	require.NoError(t, err)
	require.Equal(t, 0, exitCode, "failed to read file %s", path)

	for _, substr := range expected {
		assert.Contains(t, content, substr, "file %s should contain %q", path, substr)
	}
}

// assertFileNotContains checks that a file contains none of the given substrings
func assertFileNotContains(t *testing.T, ctx context.Context, container testcontainers.Container, path string, unexpected []string) {
	t.Helper()
	_, content, err := execInContainer(ctx, container, []string{"cat", path})
	require.NoError(t, err)

	for _, substr := range unexpected {
		assert.NotContains(t, content, substr, "file %s should not contain %q", path, substr)
	}
}

// writeAddressFile writes addresses to a temp file and returns its path
func writeAddressFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runAddrlist runs the binary and returns its combined output and exit code
func runAddrlist(t *testing.T, env []string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(addrlistBinaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		require.True(t, ok, "addrlist did not run: %v", err)
		exitCode = exitErr.ExitCode()
	}

	t.Logf("addrlist %s\n%s", strings.Join(args, " "), out)
	return string(out), exitCode
}
