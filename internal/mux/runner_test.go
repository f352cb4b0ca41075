package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
)

func TestRunnerArgs(t *testing.T) {
	inst := Instruction{
		SourceURIs: []string{"https://cdn.example.com/v.m3u8", "https://cdn.example.com/a.m3u8;rm -rf /"},
		Maps: []StreamMap{
			{Input: 0, Type: StreamVideo},
			{Input: 1, Type: StreamAudio},
		},
		OutputPath: "/tmp/movie & more.mp4",
	}

	got := NewRunner().Args(inst)
	want := []string{
		"-hide_banner", "-nostdin", "-n",
		"-i", "https://cdn.example.com/v.m3u8",
		"-i", "https://cdn.example.com/a.m3u8;rm -rf /",
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", "mov_text",
		"/tmp/movie & more.mp4",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerArgs_Options(t *testing.T) {
	r := NewRunner(WithOverwrite(true), WithSubtitleCodec("srt"), WithBinary("  "))
	got := r.Args(Instruction{SourceURIs: []string{"v.m3u8"}, OutputPath: "-out.mkv"})

	if got[2] != "-y" {
		t.Errorf("Expected -y with overwrite, got %s", got[2])
	}
	if !strings.Contains(strings.Join(got, " "), "-c:s srt") {
		t.Errorf("Expected subtitle codec srt, got %v", got)
	}
	if got[len(got)-1] != "./-out.mkv" {
		t.Errorf("Expected dash-prefixed output to be guarded, got %s", got[len(got)-1])
	}
	if r.Binary() != "ffmpeg" {
		t.Errorf("Expected blank binary override to be ignored, got %s", r.Binary())
	}
}

func TestRunnerRun_Success(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	r := NewRunner(WithBinary(os.Args[0]), WithLogger(hclog.NewNullLogger()))
	inst := Instruction{SourceURIs: []string{"v.m3u8", "a.m3u8"}, OutputPath: "/tmp/out.mp4"}

	if err := r.Run(context.Background(), inst); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if diff := cmp.Diff(r.Args(inst), capturedArgs); diff != "" {
		t.Errorf("captured args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerRun_Failure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=fail")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	r := NewRunner(WithBinary(os.Args[0]))
	err := r.Run(context.Background(), Instruction{SourceURIs: []string{"v.m3u8"}, OutputPath: "/tmp/out.mp4"})

	var muxErr *MuxError
	if !errors.As(err, &muxErr) {
		t.Fatalf("Expected MuxError, got %v", err)
	}
	if !strings.Contains(muxErr.Output, "Invalid data found") {
		t.Errorf("Expected stderr tail in error, got %q", muxErr.Output)
	}
	if !strings.Contains(err.Error(), "Invalid data found when processing input") {
		t.Errorf("Expected last stderr line in message, got %q", err.Error())
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("Expected underlying ExitError to be preserved, got %v", muxErr.Err)
	}
}

func TestRunnerRun_MissingBinary(t *testing.T) {
	r := NewRunner(WithBinary("clearly-not-present-ffmpeg"))
	err := r.Run(context.Background(), Instruction{SourceURIs: []string{"v.m3u8"}, OutputPath: "/tmp/out.mp4"})

	var muxErr *MuxError
	if !errors.As(err, &muxErr) {
		t.Fatalf("Expected MuxError, got %v", err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("Expected exec.ErrNotFound cause, got %v", muxErr.Err)
	}
}

func TestRunnerRun_RejectsEmptyInstruction(t *testing.T) {
	r := NewRunner()
	if err := r.Run(context.Background(), Instruction{OutputPath: "/tmp/out.mp4"}); err == nil {
		t.Fatal("Expected error for instruction without sources")
	}
	if err := r.Run(context.Background(), Instruction{SourceURIs: []string{"v.m3u8"}}); !errors.Is(err, ErrMissingOutputPath) {
		t.Fatalf("Expected ErrMissingOutputPath, got %v", err)
	}
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{limit: 8}
	fmt.Fprint(b, "0123456789")
	fmt.Fprint(b, "ab")
	if b.String() != "456789ab" {
		t.Errorf("Expected last 8 bytes, got %q", b.String())
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "Input #0, hls, from 'v.m3u8':")
		fmt.Fprintln(os.Stderr, "v.m3u8: Invalid data found when processing input")
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "Output #0, mp4, to '/tmp/out.mp4':")
		os.Exit(0)
	}
}
