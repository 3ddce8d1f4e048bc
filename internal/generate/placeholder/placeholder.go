// internal/generate/placeholder/placeholder.go
//
// Offline image provider.
// Responsibilities:
//   - Draw the prompt onto a plain SVG card so the game runs end to end without an API key.
//   - Pick the background colour from a hash of the prompt (same prompt, same card).

package placeholder

import (
	"context"
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"strings"

	"github.com/robalobadob/imagematch/internal/generate"
)

var palette = []string{"#FF6B6B", "#A8E6CF", "#F7DC6F", "#9B59B6", "#95E1D3", "#4ECDC4"}

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Generate(ctx context.Context, prompt string) (generate.Result, error) {
	if err := ctx.Err(); err != nil {
		return generate.Result{}, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	bg := palette[h.Sum32()%uint32(len(palette))]

	var sb strings.Builder
	sb.WriteString(`<svg width="512" height="512" xmlns="http://www.w3.org/2000/svg">`)
	fmt.Fprintf(&sb, `<rect width="512" height="512" fill="%s"/>`, bg)
	for i, line := range wrap(prompt, 28, 12) {
		fmt.Fprintf(&sb, `<text x="256" y="%d" font-family="sans-serif" font-size="22" text-anchor="middle" fill="#222">%s</text>`,
			80+i*32, html.EscapeString(line))
	}
	sb.WriteString(`</svg>`)
	return generate.Result{ImageURL: "data:image/svg+xml," + url.PathEscape(sb.String())}, nil
}

// wrap splits s into at most maxLines lines of roughly width characters.
func wrap(s string, width, maxLines int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
			if len(lines) == maxLines {
				return lines
			}
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
