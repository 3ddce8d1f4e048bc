// internal/play/images.go
//
// Image files for the terminal, which cannot display them.
// Responsibilities:
//   - Write reference SVGs and inline (data:) generated images to the image dir.
//   - Pass remote image URLs through untouched.

package play

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/robalobadob/imagematch/internal/presets"
)

// imageDir writes images the terminal cannot show to files the player can open.
type imageDir struct {
	dir string
}

func (d imageDir) reference(im presets.Image) (string, error) {
	p := filepath.Join(d.dir, "reference-"+safeName(im.ID)+".svg")
	if err := os.WriteFile(p, []byte(im.SVG), 0o644); err != nil {
		return "", fmt.Errorf("write reference: %w", err)
	}
	return p, nil
}

// artifact returns where the generated image can be viewed. Remote URLs are
// returned unchanged; inline data URLs are decoded to a file.
func (d imageDir) artifact(sessionID, imageURL string) (string, error) {
	if !strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(imageURL, "data:"), ",")
	if !ok {
		return "", fmt.Errorf("malformed data url")
	}

	ext := ".bin"
	switch {
	case strings.HasPrefix(meta, "image/svg+xml"):
		ext = ".svg"
	case strings.HasPrefix(meta, "image/png"):
		ext = ".png"
	case strings.HasPrefix(meta, "image/jpeg"):
		ext = ".jpg"
	case strings.HasPrefix(meta, "image/webp"):
		ext = ".webp"
	}

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", fmt.Errorf("decode data url: %w", err)
		}
		data = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return "", fmt.Errorf("unescape data url: %w", err)
		}
		data = []byte(s)
	}

	p := filepath.Join(d.dir, "generated-"+safeName(sessionID)+ext)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return p, nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
