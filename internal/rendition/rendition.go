// Package rendition defines data structures for HLS audio and subtitle renditions.
package rendition

import "strings"

// Kind is the type of a media rendition.
type Kind int

const (
	// Audio is an alternative audio track (TYPE=AUDIO).
	Audio Kind = iota + 1
	// Subtitles is a subtitle track (TYPE=SUBTITLES).
	Subtitles
)

// ParseKind maps a TYPE attribute value to a Kind, case-insensitively.
// Any other type (VIDEO, CLOSED-CAPTIONS) is reported as unsupported.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUDIO":
		return Audio, true
	case "SUBTITLES":
		return Subtitles, true
	default:
		return 0, false
	}
}

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Subtitles:
		return "subtitles"
	default:
		return "unknown"
	}
}

// Rendition represents a single EXT-X-MEDIA entry of a supported kind.
type Rendition struct {
	// Kind is audio or subtitles
	Kind Kind

	// Language is the LANGUAGE attribute as declared (e.g., "en", "de")
	Language string

	// Name is the human readable NAME attribute
	Name string

	// GroupID is the GROUP-ID the rendition belongs to
	GroupID string

	// Default reports whether the rendition is marked DEFAULT=YES
	Default bool

	// URI locates the rendition's media playlist
	URI string
}
