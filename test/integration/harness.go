// Package integration provides integration testing utilities for rbdl.
package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeFFmpeg records its arguments, one per line, and exits successfully.
const fakeFFmpeg = `#!/bin/sh
for arg in "$@"; do
	printf '%s\n' "$arg" >> "$RBDL_FFMPEG_ARGS"
done
echo "Output #0, mp4, to 'out.mp4':" >&2
exit 0
`

// TestHarness manages the test environment for integration tests.
type TestHarness struct {
	t          *testing.T
	httpServer *httptest.Server
	streamDir  string
	tempDir    string
	configPath string
	ffmpegPath string
	argsPath   string
	binaryPath string
}

// Result is the outcome of one rbdl invocation.
type Result struct {
	ExitCode int
	Output   string
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg requires a POSIX shell")
	}

	h := &TestHarness{
		t:       t,
		tempDir: t.TempDir(),
	}
	h.binaryPath = h.findRbdlBinary()
	h.streamDir = filepath.Join(h.tempDir, "streams")
	if err := os.MkdirAll(h.streamDir, 0o755); err != nil {
		t.Fatalf("failed to create stream dir: %v", err)
	}

	h.ffmpegPath = filepath.Join(h.tempDir, "ffmpeg")
	if err := os.WriteFile(h.ffmpegPath, []byte(fakeFFmpeg), 0o755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	h.argsPath = filepath.Join(h.tempDir, "ffmpeg-args.txt")

	return h
}

// StartHTTPServer starts an HTTP server serving the streaming endpoint and
// writes a config file pointing rbdl at it.
func (h *TestHarness) StartHTTPServer() {
	h.t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/streams/", http.StripPrefix("/streams/", http.FileServer(http.Dir(h.streamDir))))
	h.httpServer = httptest.NewServer(mux)

	h.configPath = filepath.Join(h.tempDir, "config.toml")
	config := fmt.Sprintf("base_url = %q\nffmpeg = %q\nfetch_timeout = \"5s\"\n",
		h.httpServer.URL+"/streams/", h.ffmpegPath)
	if err := os.WriteFile(h.configPath, []byte(config), 0o644); err != nil {
		h.t.Fatalf("failed to write config: %v", err)
	}

	h.t.Logf("HTTP server started at %s", h.httpServer.URL)
}

// StreamURL returns the absolute URL of a file below the streaming endpoint.
func (h *TestHarness) StreamURL(name string) string {
	return h.httpServer.URL + "/streams/" + name
}

// AddManifest publishes a manifest for a movie ID.
func (h *TestHarness) AddManifest(id, content string) {
	h.t.Helper()

	path := filepath.Join(h.streamDir, id+".m3u8")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("failed to write manifest: %v", err)
	}
}

// Run executes rbdl with the harness config and the given arguments.
func (h *TestHarness) Run(args ...string) Result {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.binaryPath, append([]string{"--config", h.configPath}, args...)...)
	cmd.Env = append(os.Environ(), "RBDL_FFMPEG_ARGS="+h.argsPath)

	output, err := cmd.CombinedOutput()
	result := Result{Output: string(output)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		h.t.Fatalf("failed to run rbdl: %v", err)
	}

	return result
}

// FFmpegArgs returns the arguments the fake ffmpeg received, or nil if it
// was not started.
func (h *TestHarness) FFmpegArgs() []string {
	h.t.Helper()

	data, err := os.ReadFile(h.argsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		h.t.Fatalf("failed to read ffmpeg args: %v", err)
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Cleanup stops all running services.
func (h *TestHarness) Cleanup() {
	if h.httpServer != nil {
		h.httpServer.Close()
	}
}

// findRbdlBinary locates the rbdl binary.
func (h *TestHarness) findRbdlBinary() string {
	h.t.Helper()

	// Try several possible locations
	candidates := []string{
		"../../rbdl",      // From test/integration
		"./rbdl",          // From project root
		"../rbdl",         // From test directory
		"./cmd/rbdl/rbdl", // Built in place
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			absPath, _ := filepath.Abs(path)
			h.t.Logf("Found rbdl binary at: %s", absPath)
			return absPath
		}
	}

	h.t.Skip("rbdl binary not found. Run 'go build -o rbdl ./cmd/rbdl' first")
	return ""
}
