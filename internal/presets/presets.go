// internal/presets/presets.go
//
// Reference image catalogue for the match game.
//
// Responsibilities:
//   - Load the preset list from a JSON file (REFERENCE_IMAGES_FILE) or fall back to the embedded default.
//   - Validate entries (id, description and svg are required; ids are unique).
//   - Pick one image uniformly at random for each new session.
//
// File format (JSON array):
//   [{"id": "smiley", "description": "A yellow background ...", "svg": "<svg ...>...</svg>"}]
//
// The catalogue is read-only once loaded; callers receive copies.

package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"

	"github.com/robalobadob/imagematch/assets"
)

// Image is one preset reference image. SVG is the opaque visual payload;
// Description is only ever shown to the player, never used for scoring.
type Image struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	SVG         string `json:"svg"`
}

// DataURL returns the image as an inline data: URL suitable for <img src>.
func (im Image) DataURL() string {
	return "data:image/svg+xml," + url.PathEscape(im.SVG)
}

// Catalog is an immutable, ordered set of preset images.
type Catalog struct {
	images []Image
	byID   map[string]int
}

// Load reads the catalogue from path, or from the embedded default if path is empty.
func Load(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("presets: read %s: %w", path, err)
		}
	} else {
		data, err = assets.PresetsJSON()
		if err != nil {
			return nil, fmt.Errorf("presets: embedded: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a JSON catalogue.
func Parse(data []byte) (*Catalog, error) {
	var list []Image
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("presets: decode: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("presets: catalogue is empty")
	}
	c := &Catalog{images: make([]Image, 0, len(list)), byID: make(map[string]int, len(list))}
	for i, im := range list {
		im.ID = strings.TrimSpace(im.ID)
		im.Description = strings.TrimSpace(im.Description)
		if im.ID == "" || im.Description == "" || strings.TrimSpace(im.SVG) == "" {
			return nil, fmt.Errorf("presets: entry %d: id, description and svg are required", i)
		}
		if _, dup := c.byID[im.ID]; dup {
			return nil, fmt.Errorf("presets: duplicate id %q", im.ID)
		}
		c.byID[im.ID] = len(c.images)
		c.images = append(c.images, im)
	}
	return c, nil
}

// Len reports the number of images.
func (c *Catalog) Len() int { return len(c.images) }

// All returns a copy of the images in catalogue order.
func (c *Catalog) All() []Image {
	out := make([]Image, len(c.images))
	copy(out, c.images)
	return out
}

// Get looks up an image by id.
func (c *Catalog) Get(id string) (Image, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Image{}, false
	}
	return c.images[i], true
}

// Random picks an image uniformly at random.
func (c *Catalog) Random() Image {
	return c.Pick(rand.Intn)
}

// Pick selects an image using intn, which must return a value in [0, n).
// Exposed so callers and tests can supply their own source.
func (c *Catalog) Pick(intn func(n int) int) Image {
	return c.images[intn(len(c.images))]
}
