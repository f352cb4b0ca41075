// Package manifest parses HLS multivariant manifests into video variants and
// media renditions.
//
// Parsing is a pure function of the manifest text. Fetching the text is left
// to the fetch package; resolving relative URIs against the manifest location
// is available through Resolve.
package manifest

import (
	"fmt"

	"github.com/agleyzer/rbdl/internal/rendition"
	"github.com/agleyzer/rbdl/internal/variant"
)

// Manifest is the parsed content of a multivariant manifest.
// Both slices preserve declaration order.
type Manifest struct {
	// Variants contains the playable video variants (I-frame variants excluded)
	Variants []variant.Variant

	// Renditions contains the addressable audio and subtitle renditions
	Renditions []rendition.Rendition
}

// MalformedManifestError reports manifest text that cannot be interpreted
// as a multivariant manifest.
type MalformedManifestError struct {
	// Fragment is the offending part of the manifest, if one can be isolated
	Fragment string
	Reason   string
	Err      error
}

func (e *MalformedManifestError) Error() string {
	msg := "malformed manifest: " + e.Reason
	if e.Fragment != "" {
		msg += fmt.Sprintf(" (%s)", e.Fragment)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedManifestError) Unwrap() error {
	return e.Err
}

// Resolve returns a copy of the manifest with every URI resolved against
// baseURL. Absolute URIs are kept as they are.
func (m *Manifest) Resolve(baseURL string) (*Manifest, error) {
	resolved := &Manifest{
		Variants:   make([]variant.Variant, len(m.Variants)),
		Renditions: make([]rendition.Rendition, len(m.Renditions)),
	}

	for i, v := range m.Variants {
		uri, err := resolveURL(baseURL, v.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve variant %s URL: %w", v.Key(), err)
		}
		v.URI = uri
		resolved.Variants[i] = v
	}

	for i, r := range m.Renditions {
		uri, err := resolveURL(baseURL, r.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s rendition %q URL: %w", r.Kind, r.Language, err)
		}
		r.URI = uri
		resolved.Renditions[i] = r
	}

	return resolved, nil
}
