package manifest

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/agleyzer/rbdl/internal/rendition"
	"github.com/agleyzer/rbdl/internal/variant"
	"github.com/grafov/m3u8"
)

const (
	tagMedia           = "#EXT-X-MEDIA:"
	tagStreamInf       = "#EXT-X-STREAM-INF:"
	tagIFrameStreamInf = "#EXT-X-I-FRAME-STREAM-INF:"
)

// Parse decodes raw manifest text into a Manifest.
//
// Renditions keep declaration order. Renditions of a type other than AUDIO
// or SUBTITLES are ignored, as are renditions without a URI (their media is
// carried inside the variant).
// Every playable variant must carry a valid RESOLUTION and a URI.
func Parse(raw string) (*Manifest, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(raw), true)
	if err != nil {
		return nil, &MalformedManifestError{Reason: "failed to decode playlist", Err: err}
	}

	if listType != m3u8.MASTER {
		return nil, &MalformedManifestError{Reason: "not a multivariant playlist"}
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return nil, &MalformedManifestError{Reason: "unexpected playlist type"}
	}

	mediaLines, err := scanTags(raw)
	if err != nil {
		return nil, err
	}

	variants, err := parseVariants(master)
	if err != nil {
		return nil, err
	}

	renditions, err := parseRenditions(mediaLines)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Variants:   variants,
		Renditions: renditions,
	}, nil
}

// parseVariants extracts the playable video variants in declaration order.
func parseVariants(master *m3u8.MasterPlaylist) ([]variant.Variant, error) {
	var variants []variant.Variant

	for variantIndex, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}

		if v.Resolution == "" {
			return nil, &MalformedManifestError{
				Fragment: fmt.Sprintf("variant %d", variantIndex),
				Reason:   "missing RESOLUTION attribute",
			}
		}

		width, height, err := variant.ParseResolution(v.Resolution)
		if err != nil {
			return nil, &MalformedManifestError{
				Fragment: "RESOLUTION=" + v.Resolution,
				Reason:   "unparsable resolution",
				Err:      err,
			}
		}

		if strings.TrimSpace(v.URI) == "" {
			return nil, &MalformedManifestError{
				Fragment: fmt.Sprintf("variant %d RESOLUTION=%s", variantIndex, v.Resolution),
				Reason:   "EXT-X-STREAM-INF is not followed by a URI",
			}
		}

		variants = append(variants, variant.Variant{
			Width:     width,
			Height:    height,
			Bandwidth: int(v.Bandwidth),
			Codecs:    v.Codecs,
			URI:       v.URI,
		})
	}

	if len(variants) == 0 {
		return nil, &MalformedManifestError{Reason: "master playlist contains no variants"}
	}

	return variants, nil
}

// parseRenditions converts the EXT-X-MEDIA lines, in declaration order, into
// renditions. Entries are read whether or not a variant references their group.
func parseRenditions(mediaLines []string) ([]rendition.Rendition, error) {
	var renditions []rendition.Rendition

	for _, line := range mediaLines {
		attrs := m3u8.DecodeAttributeList(strings.TrimPrefix(line, tagMedia))

		kind, ok := rendition.ParseKind(attrs["TYPE"])
		if !ok || strings.TrimSpace(attrs["URI"]) == "" {
			continue
		}

		if attrs["LANGUAGE"] == "" {
			return nil, &MalformedManifestError{Fragment: line, Reason: "missing LANGUAGE attribute"}
		}
		if attrs["NAME"] == "" {
			return nil, &MalformedManifestError{Fragment: line, Reason: "missing NAME attribute"}
		}

		renditions = append(renditions, rendition.Rendition{
			Kind:     kind,
			Language: attrs["LANGUAGE"],
			Name:     attrs["NAME"],
			GroupID:  attrs["GROUP-ID"],
			Default:  strings.EqualFold(attrs["DEFAULT"], "YES"),
			URI:      attrs["URI"],
		})
	}

	return renditions, nil
}

// scanTags walks the manifest text line by line. It returns the EXT-X-MEDIA
// lines in declaration order and rejects an EXT-X-STREAM-INF that is not
// followed by its URI line before the next variant tag.
func scanTags(raw string) ([]string, error) {
	var (
		mediaLines  []string
		pending     string
		pendingLine int
		lineNo      int
	)

	unterminated := func() error {
		return &MalformedManifestError{
			Fragment: fmt.Sprintf("line %d: %s", pendingLine, pending),
			Reason:   "EXT-X-STREAM-INF is not followed by a URI",
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case strings.HasPrefix(line, tagStreamInf), strings.HasPrefix(line, tagIFrameStreamInf):
			if pending != "" {
				return nil, unterminated()
			}
			if strings.HasPrefix(line, tagStreamInf) {
				pending, pendingLine = line, lineNo
			}
		case strings.HasPrefix(line, tagMedia):
			mediaLines = append(mediaLines, line)
		case strings.HasPrefix(line, "#"):
		default:
			pending = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedManifestError{Reason: "failed to read manifest", Err: err}
	}

	if pending != "" {
		return nil, unterminated()
	}

	return mediaLines, nil
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}

	// Resolve the relative URL against the base
	resolved := base.ResolveReference(rel)
	return resolved.String(), nil
}
