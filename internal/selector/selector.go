// Package selector validates a requested combination of video resolution,
// audio language and subtitle language against a catalog.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agleyzer/rbdl/internal/catalog"
	"github.com/agleyzer/rbdl/internal/rendition"
	"github.com/samber/mo"
)

// Axis names a selectable stream dimension.
type Axis string

const (
	// AxisVideo selects a video variant by resolution key, e.g. "1280x720"
	AxisVideo Axis = "video"
	// AxisAudio selects an audio rendition by language
	AxisAudio Axis = "audio"
	// AxisSubtitles selects a subtitles rendition by language
	AxisSubtitles Axis = "subtitles"
)

// ErrNoSelection is returned when neither a video nor an audio stream was requested.
var ErrNoSelection = errors.New("video or audio format is required")

// UnknownFormatError reports a requested key that the catalog does not offer.
type UnknownFormatError struct {
	Axis      Axis
	Key       string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	msg := fmt.Sprintf("unknown %s format %q", e.Axis, e.Key)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// Request holds the user's choice per axis. An absent option means the
// axis was not requested.
type Request struct {
	Video     mo.Option[string]
	Audio     mo.Option[string]
	Subtitles mo.Option[string]
}

// Selection holds the resolved stream URI per requested axis.
// Axes that were not requested stay absent.
type Selection struct {
	VideoURI    mo.Option[string]
	AudioURI    mo.Option[string]
	SubtitleURI mo.Option[string]
}

// Select resolves the request against the catalog.
func Select(c *catalog.Catalog, req Request) (Selection, error) {
	if req.Video.IsAbsent() && req.Audio.IsAbsent() {
		return Selection{}, ErrNoSelection
	}

	var sel Selection

	if key, ok := req.Video.Get(); ok {
		v, found := c.Video(key)
		if !found {
			return Selection{}, &UnknownFormatError{Axis: AxisVideo, Key: key, Available: c.ResolutionKeys()}
		}
		sel.VideoURI = mo.Some(v.URI)
	}

	if key, ok := req.Audio.Get(); ok {
		uri, err := selectMedia(c, rendition.Audio, AxisAudio, key)
		if err != nil {
			return Selection{}, err
		}
		sel.AudioURI = mo.Some(uri)
	}

	if key, ok := req.Subtitles.Get(); ok {
		uri, err := selectMedia(c, rendition.Subtitles, AxisSubtitles, key)
		if err != nil {
			return Selection{}, err
		}
		sel.SubtitleURI = mo.Some(uri)
	}

	return sel, nil
}

func selectMedia(c *catalog.Catalog, kind rendition.Kind, axis Axis, language string) (string, error) {
	r, ok := c.Media(kind, language)
	if !ok {
		return "", &UnknownFormatError{Axis: axis, Key: language, Available: c.Languages(kind)}
	}
	return r.URI, nil
}
