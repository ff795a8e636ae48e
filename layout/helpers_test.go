package layout

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/registration"
)

// stubTypesetter 每个显式换行产生一行，行高等于字号，不依赖真实字体。
type stubTypesetter struct{}

func (stubTypesetter) LayoutLines(content string, width float64, _ FontResource, fontSize, lineHeight float64, _ string) ([]TextLine, error) {
	var out []TextLine
	for i, part := range strings.Split(content, "\n") {
		ln := TextLine{Content: part, Width: estimateTextWidth(part, fontSize), Height: fontSize}
		if ln.Width > width {
			ln.Width = width
		}
		if i > 0 {
			ln.GapBefore = lineHeight - fontSize
		}
		out = append(out, ln)
	}
	return out, nil
}

// mapAssets 按路径返回预设的查找结果，未登记的路径视为不存在。
type mapAssets map[string]asset.Lookup

func (m mapAssets) Resolve(_ context.Context, path string) asset.Lookup {
	if l, ok := m[path]; ok {
		l.Path = path
		return l
	}
	return asset.Lookup{Status: asset.NotFound, Path: path}
}

func found(w, h int) asset.Lookup {
	return asset.Lookup{Status: asset.Found, Image: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func testOptions(assets mapAssets) BuildOptions {
	return BuildOptions{Typesetter: stubTypesetter{}, Assets: assets}
}

func makeRecords(n int) []registration.Record {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]registration.Record, n)
	for i := range out {
		out[i] = registration.Record{
			ID:           fmt.Sprintf("id-%03d", i),
			Name:         fmt.Sprintf("Person %d", i+1),
			Cluster:      "Cluster",
			Unit:         "Unit",
			Designations: []string{"Member"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func pageTexts(p Page) []string {
	out := make([]string, len(p.Texts))
	for i, tb := range p.Texts {
		out[i] = tb.Content
	}
	return out
}

func containsText(p Page, s string) bool {
	for _, tb := range p.Texts {
		if tb.Content == s {
			return true
		}
	}
	return false
}
