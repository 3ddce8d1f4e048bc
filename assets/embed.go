// assets/embed.go
//
// Files compiled into the binary.
// Responsibilities:
//   - presets.json: the default reference image catalogue.

package assets

import (
	"embed"
)

//go:embed presets.json
var FS embed.FS

// PresetsJSON returns the built-in reference image catalogue.
func PresetsJSON() ([]byte, error) {
	return FS.ReadFile("presets.json")
}
