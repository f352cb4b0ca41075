// Package variant defines data structures for HLS video variants in multivariant manifests.
package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant represents a single video variant stream in an HLS multivariant manifest.
// Each variant is one rendition of the title at a specific resolution.
type Variant struct {
	// Width is the horizontal resolution in pixels
	Width int

	// Height is the vertical resolution in pixels
	Height int

	// Bandwidth is the peak segment bitrate in bits per second
	Bandwidth int

	// Codecs is the codec string (e.g., "avc1.4d401f,mp4a.40.2")
	// Empty string if not specified in the manifest
	Codecs string

	// URI locates the variant's media playlist, absolute or relative to the manifest
	URI string
}

// Key returns the resolution key of the variant, e.g. "1280x720".
func (v Variant) Key() string {
	return FormatResolution(v.Width, v.Height)
}

// FormatResolution renders a width and height as "WIDTHxHEIGHT".
func FormatResolution(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// ParseResolution parses a "WIDTHxHEIGHT" attribute value.
// Both components must be positive integers.
func ParseResolution(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q is not WIDTHxHEIGHT", s)
	}

	width, err = strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("resolution %q has invalid width", s)
	}

	height, err = strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q has invalid height", s)
	}

	return width, height, nil
}

// Less orders variants by height, then width, both ascending.
func Less(a, b Variant) bool {
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	return a.Width < b.Width
}
