// The rbdl command downloads Red Bull TV titles by resolving their HLS
// manifest and muxing the selected streams with ffmpeg.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agleyzer/rbdl/internal/catalog"
	"github.com/agleyzer/rbdl/internal/config"
	"github.com/agleyzer/rbdl/internal/fetch"
	"github.com/agleyzer/rbdl/internal/manifest"
	"github.com/agleyzer/rbdl/internal/mux"
	"github.com/agleyzer/rbdl/internal/selector"
	"github.com/hashicorp/go-hclog"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
)

// options holds the command-line flags.
type options struct {
	configPath  string
	debug       bool
	dryRun      bool
	listFormats bool
	video       mo.Option[string]
	audio       mo.Option[string]
	subtitles   mo.Option[string]
	output      string
	ffmpeg      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	var (
		opts                    options
		video, audio, subtitles string
	)

	cmd := &cobra.Command{
		Use:           "rbdl [flags] ID",
		Short:         "Download movies from Red Bull TV",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.Join([]string{
			"  rbdl --list-formats rrn:content:films:abc",
			"  rbdl --video 1280x720 --audio en --subtitles en --output movie.mp4 rrn:content:films:abc",
			"  rbdl --audio en --output soundtrack.m4a --dry-run rrn:content:films:abc",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts.video = optionalFlag(flags.Changed("video"), video)
			opts.audio = optionalFlag(flags.Changed("audio"), audio)
			opts.subtitles = optionalFlag(flags.Changed("subtitles"), subtitles)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.OutOrStdout(), opts.debug)
			return run(cmd.Context(), args[0], opts, cfg, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.BoolVar(&opts.debug, "debug", false, "Turn debug on")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show what should be done but don't do anything")
	flags.BoolVar(&opts.listFormats, "list-formats", false, "Display available formats")
	flags.StringVar(&video, "video", "", "Format of the video stream (RESOLUTION)")
	flags.StringVar(&audio, "audio", "", "Format of the audio stream (LANGUAGE)")
	flags.StringVar(&subtitles, "subtitles", "", "Format of the subtitles (LANGUAGE)")
	flags.StringVar(&opts.output, "output", "", "Path where movie will be saved")
	flags.StringVar(&opts.ffmpeg, "ffmpeg", "", "Path of the ffmpeg executable")

	return cmd
}

func optionalFlag(changed bool, value string) mo.Option[string] {
	if !changed {
		return mo.None[string]()
	}
	return mo.Some(value)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// newFFmpegLogger creates the hclog.Logger ffmpeg's stderr is streamed into.
func newFFmpegLogger(w io.Writer, debug bool) hclog.Logger {
	level := hclog.Info
	if debug {
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "ffmpeg",
		Level:  level,
		Output: w,
	})
}

func run(ctx context.Context, id string, opts options, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	// Usage errors are reported before any network traffic
	if !opts.listFormats {
		if opts.video.IsAbsent() && opts.audio.IsAbsent() {
			return selector.ErrNoSelection
		}
		if strings.TrimSpace(opts.output) == "" {
			return mux.ErrMissingOutputPath
		}
	}

	client := fetch.New(cfg.BaseURL, time.Duration(cfg.FetchTimeout))
	raw, manifestURL, err := client.Fetch(ctx, id)
	if err != nil {
		return err
	}
	logger.Debug("fetched manifest", "url", manifestURL, "bytes", len(raw))

	parsed, err := manifest.Parse(raw)
	if err != nil {
		return err
	}

	parsed, err = parsed.Resolve(manifestURL)
	if err != nil {
		return err
	}

	cat := catalog.Build(parsed)
	logger.Debug("parsed manifest",
		"variants", len(parsed.Variants),
		"renditions", len(parsed.Renditions),
	)
	for _, c := range cat.Collisions() {
		logger.Warn("duplicate format in manifest",
			"axis", c.Axis,
			"key", c.Key,
			"kept", c.KeptURI,
			"ignored", c.DroppedURI,
		)
	}

	if opts.listFormats {
		_, err := io.WriteString(stdout, renderListing(cat))
		return err
	}

	sel, err := selector.Select(cat, selector.Request{
		Video:     opts.video,
		Audio:     opts.audio,
		Subtitles: opts.subtitles,
	})
	if err != nil {
		return err
	}
	logger.Debug("resolved selection",
		"video", sel.VideoURI.OrEmpty(),
		"audio", sel.AudioURI.OrEmpty(),
		"subtitles", sel.SubtitleURI.OrEmpty(),
	)

	inst, err := mux.Build(sel, opts.output)
	if err != nil {
		return err
	}

	ffmpeg := cfg.FFmpeg
	if opts.ffmpeg != "" {
		ffmpeg = opts.ffmpeg
	}

	runner := mux.NewRunner(
		mux.WithBinary(ffmpeg),
		mux.WithSubtitleCodec(cfg.SubtitleCodec),
		mux.WithOverwrite(cfg.Overwrite),
		mux.WithLogger(newFFmpegLogger(stdout, opts.debug)),
	)

	logger.Debug("ffmpeg command", "binary", runner.Binary(), "args", runner.Args(inst))
	logger.Info("download", "id", id, "output", inst.OutputPath, "streams", len(inst.SourceURIs))

	if opts.dryRun {
		logger.Info("dry run, muxer not started", "binary", runner.Binary(), "args", runner.Args(inst))
		return nil
	}

	if err := runner.Run(ctx, inst); err != nil {
		return err
	}

	logger.Info("download complete", "output", inst.OutputPath)
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var (
		unknown   *selector.UnknownFormatError
		malformed *manifest.MalformedManifestError
		fetchErr  *fetch.FetchError
		muxErr    *mux.MuxError
	)

	switch {
	case err == nil:
		return 0
	case errors.Is(err, selector.ErrNoSelection),
		errors.Is(err, mux.ErrMissingOutputPath),
		errors.As(err, &unknown):
		return 2
	case errors.As(err, &malformed):
		return 3
	case errors.As(err, &fetchErr):
		return 4
	case errors.As(err, &muxErr):
		return 5
	default:
		return 1
	}
}
