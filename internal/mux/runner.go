package mux

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
)

var commandContext = exec.CommandContext

const (
	defaultBinary        = "ffmpeg"
	defaultSubtitleCodec = "mov_text"
	stderrTailSize       = 4096
)

// MuxError reports a failed ffmpeg invocation.
type MuxError struct {
	Binary string
	Err    error
	// Output holds the tail of ffmpeg's stderr
	Output string
}

func (e *MuxError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Binary, e.Err)
	if last := lastLine(e.Output); last != "" {
		msg += ": " + last
	}
	return msg
}

func (e *MuxError) Unwrap() error {
	return e.Err
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(binary) != "" {
			r.binary = strings.TrimSpace(binary)
		}
	}
}

// WithSubtitleCodec overrides the codec subtitle tracks are transcoded to.
func WithSubtitleCodec(codec string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(codec) != "" {
			r.subtitleCodec = strings.TrimSpace(codec)
		}
	}
}

// WithOverwrite allows ffmpeg to replace an existing output file.
func WithOverwrite(overwrite bool) Option {
	return func(r *Runner) {
		r.overwrite = overwrite
	}
}

// WithLogger sets the logger ffmpeg's stderr is streamed into.
func WithLogger(logger hclog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes an Instruction with ffmpeg. Video and audio are copied
// as they are; subtitles are transcoded to a codec the container accepts.
type Runner struct {
	binary        string
	subtitleCodec string
	overwrite     bool
	logger        hclog.Logger
}

// NewRunner creates a Runner with the given options applied.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:        defaultBinary,
		subtitleCodec: defaultSubtitleCodec,
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the configured ffmpeg executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Args returns the ffmpeg argument array for the instruction.
// Arguments are passed to the process directly, never through a shell.
func (r *Runner) Args(inst Instruction) []string {
	args := []string{"-hide_banner", "-nostdin"}
	if r.overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	for _, uri := range inst.SourceURIs {
		args = append(args, "-i", uri)
	}
	for _, m := range inst.Maps {
		args = append(args, "-map", m.String())
	}

	args = append(args,
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", r.subtitleCodec,
		outputArg(inst.OutputPath),
	)
	return args
}

// Run executes ffmpeg and waits for it to finish.
func (r *Runner) Run(ctx context.Context, inst Instruction) error {
	if len(inst.SourceURIs) == 0 {
		return fmt.Errorf("instruction has no source streams")
	}
	if strings.TrimSpace(inst.OutputPath) == "" {
		return ErrMissingOutputPath
	}

	binary, err := exec.LookPath(r.binary)
	if err != nil {
		return &MuxError{Binary: r.binary, Err: err}
	}

	args := r.Args(inst)
	r.logger.Debug("running muxer", "binary", binary, "args", args)

	tail := &tailBuffer{limit: stderrTailSize}
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stderr = io.MultiWriter(
		r.logger.StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Info}),
		tail,
	)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &MuxError{Binary: r.binary, Err: err, Output: tail.String()}
	}

	return nil
}

// outputArg keeps an output path that starts with a dash from being read as an option.
func outputArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
