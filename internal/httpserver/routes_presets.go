// internal/httpserver/routes_presets.go
//
// Preset catalogue routes:
//   - GET /api/presets      → every reference image (id, description, svg, data url)
//   - GET /api/presets/{id} → one image, JSON 404 when unknown

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/imagematch/internal/presets"
)

// presetRes carries the raw SVG as well as a ready-to-use data URL so clients
// can either embed the image or rebuild a catalogue from the list.
type presetRes struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	SVG         string `json:"svg"`
	URL         string `json:"url"`
}

func toPresetRes(im presets.Image) presetRes {
	return presetRes{ID: im.ID, Description: im.Description, SVG: im.SVG, URL: im.DataURL()}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	all := s.presets.All()
	out := make([]presetRes, 0, len(all))
	for _, im := range all {
		out = append(out, toPresetRes(im))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	im, ok := s.presets.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, toPresetRes(im))
}
