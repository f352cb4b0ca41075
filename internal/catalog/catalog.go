// Package catalog indexes a parsed manifest by resolution and by
// (kind, language) so user requests can be resolved to stream URIs.
//
// A Catalog is immutable once built and safe for concurrent readers.
package catalog

import (
	"fmt"
	"slices"

	"github.com/agleyzer/rbdl/internal/manifest"
	"github.com/agleyzer/rbdl/internal/rendition"
	"github.com/agleyzer/rbdl/internal/variant"
	"github.com/samber/lo"
)

// Collision records a manifest entry that was dropped because an earlier
// entry already claimed the same key.
type Collision struct {
	// Axis is "video", "audio" or "subtitles"
	Axis string

	// Key is the resolution or language both entries map to
	Key string

	// KeptURI is the URI of the first-seen entry, which stays in the catalog
	KeptURI string

	// DroppedURI is the URI of the later entry
	DroppedURI string
}

func (c Collision) String() string {
	return fmt.Sprintf("duplicate %s format %q: keeping %s, ignoring %s", c.Axis, c.Key, c.KeptURI, c.DroppedURI)
}

type mediaKey struct {
	kind     rendition.Kind
	language string
}

// Catalog is the lookup structure derived from a manifest.
type Catalog struct {
	videos      map[string]variant.Variant
	resolutions []variant.Variant

	media      map[mediaKey]rendition.Rendition
	renditions map[rendition.Kind][]rendition.Rendition

	collisions []Collision
}

// Build indexes the manifest. When two entries share a key the first one
// wins and the later one is recorded as a Collision.
func Build(m *manifest.Manifest) *Catalog {
	c := &Catalog{
		videos:     make(map[string]variant.Variant),
		media:      make(map[mediaKey]rendition.Rendition),
		renditions: make(map[rendition.Kind][]rendition.Rendition),
	}

	for _, v := range m.Variants {
		key := v.Key()
		if kept, ok := c.videos[key]; ok {
			c.collisions = append(c.collisions, Collision{
				Axis:       "video",
				Key:        key,
				KeptURI:    kept.URI,
				DroppedURI: v.URI,
			})
			continue
		}
		c.videos[key] = v
		c.resolutions = append(c.resolutions, v)
	}

	slices.SortStableFunc(c.resolutions, func(a, b variant.Variant) int {
		switch {
		case variant.Less(a, b):
			return -1
		case variant.Less(b, a):
			return 1
		default:
			return 0
		}
	})

	for _, r := range m.Renditions {
		key := mediaKey{kind: r.Kind, language: r.Language}
		if kept, ok := c.media[key]; ok {
			c.collisions = append(c.collisions, Collision{
				Axis:       r.Kind.String(),
				Key:        r.Language,
				KeptURI:    kept.URI,
				DroppedURI: r.URI,
			})
			continue
		}
		c.media[key] = r
		c.renditions[r.Kind] = append(c.renditions[r.Kind], r)
	}

	return c
}

// Video looks up the variant for a resolution key such as "1280x720".
func (c *Catalog) Video(resolution string) (variant.Variant, bool) {
	v, ok := c.videos[resolution]
	return v, ok
}

// Media looks up the rendition of the given kind for a language.
func (c *Catalog) Media(kind rendition.Kind, language string) (rendition.Rendition, bool) {
	r, ok := c.media[mediaKey{kind: kind, language: language}]
	return r, ok
}

// Resolutions returns one variant per resolution, ordered by height and
// then width, ascending.
func (c *Catalog) Resolutions() []variant.Variant {
	return slices.Clone(c.resolutions)
}

// ResolutionKeys returns the resolution keys in Resolutions order.
func (c *Catalog) ResolutionKeys() []string {
	return lo.Map(c.resolutions, func(v variant.Variant, _ int) string {
		return v.Key()
	})
}

// Renditions returns one rendition per language for the kind, in manifest order.
func (c *Catalog) Renditions(kind rendition.Kind) []rendition.Rendition {
	return slices.Clone(c.renditions[kind])
}

// Languages returns the language keys available for the kind, in manifest order.
func (c *Catalog) Languages(kind rendition.Kind) []string {
	return lo.Map(c.renditions[kind], func(r rendition.Rendition, _ int) string {
		return r.Language
	})
}

// Collisions returns the entries that lost to an earlier entry with the same key.
func (c *Catalog) Collisions() []Collision {
	return slices.Clone(c.collisions)
}
