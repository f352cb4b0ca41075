// Package mux turns a selection into a muxing instruction and runs ffmpeg on it.
package mux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agleyzer/rbdl/internal/selector"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrMissingOutputPath is returned when no output path was given.
var ErrMissingOutputPath = errors.New("output path is required")

// StreamType is the ffmpeg stream specifier for one kind of stream.
type StreamType string

// Stream types taken from an input.
const (
	StreamVideo     StreamType = "v"
	StreamAudio     StreamType = "a"
	StreamSubtitles StreamType = "s"
)

// StreamMap takes the streams of one type from one input.
type StreamMap struct {
	// Input is an index into Instruction.SourceURIs
	Input int
	Type  StreamType
	// Optional maps nothing, instead of failing, when the input has no such stream
	Optional bool
}

// String returns the value for ffmpeg's -map option, e.g. "1:a".
func (m StreamMap) String() string {
	s := fmt.Sprintf("%d:%s", m.Input, m.Type)
	if m.Optional {
		s += "?"
	}
	return s
}

// Instruction describes which source streams to combine into one output file.
type Instruction struct {
	// SourceURIs lists video, then audio, then subtitles, without duplicates
	SourceURIs []string

	// Maps says which stream of which input goes to the output. Empty leaves
	// the choice to ffmpeg.
	Maps []StreamMap

	// OutputPath is where the muxed file is written
	OutputPath string
}

// Build creates an Instruction from a selection. A URI shared by several
// axes is kept once, at its first position.
func Build(sel selector.Selection, outputPath string) (Instruction, error) {
	if sel.VideoURI.IsAbsent() && sel.AudioURI.IsAbsent() {
		return Instruction{}, selector.ErrNoSelection
	}

	if strings.TrimSpace(outputPath) == "" {
		return Instruction{}, ErrMissingOutputPath
	}

	var uris []string
	for _, opt := range []mo.Option[string]{sel.VideoURI, sel.AudioURI, sel.SubtitleURI} {
		if uri, ok := opt.Get(); ok {
			uris = append(uris, uri)
		}
	}
	uris = lo.Uniq(uris)

	var maps []StreamMap
	if uri, ok := sel.VideoURI.Get(); ok {
		input := lo.IndexOf(uris, uri)
		maps = append(maps, StreamMap{Input: input, Type: StreamVideo})
		if sel.AudioURI.IsAbsent() {
			// Keep the audio muxed into the variant, if it has any
			maps = append(maps, StreamMap{Input: input, Type: StreamAudio, Optional: true})
		}
	}
	if uri, ok := sel.AudioURI.Get(); ok {
		maps = append(maps, StreamMap{Input: lo.IndexOf(uris, uri), Type: StreamAudio})
	}
	if uri, ok := sel.SubtitleURI.Get(); ok {
		maps = append(maps, StreamMap{Input: lo.IndexOf(uris, uri), Type: StreamSubtitles})
	}

	return Instruction{
		SourceURIs: uris,
		Maps:       maps,
		OutputPath: outputPath,
	}, nil
}
