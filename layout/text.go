package layout

import (
	"math"
	"strings"
)

// 内置字体名称，对应 fonts 包中嵌入的 Go 字体。
const (
	FontBody   = "Body"
	FontBold   = "Bold"
	FontItalic = "Italic" // 占位文字
)

// DefaultResources 返回两种导出共用的字体资源。
func DefaultResources() ResourceSet {
	return ResourceSet{Fonts: map[string]FontResource{
		FontBody:   {Name: FontBody, Src: "embed:go-regular", Style: "regular"},
		FontBold:   {Name: FontBold, Src: "embed:go-bold", Style: "bold"},
		FontItalic: {Name: FontItalic, Src: "embed:go-italic", Style: "italic"},
	}}
}

func resolveFontResource(name string, res ResourceSet) FontResource {
	if font, ok := res.Fonts[name]; ok {
		return font
	}
	if font, ok := res.Fonts[FontBody]; ok {
		return font
	}
	return FontResource{Name: name}
}

// composeText 在给定宽度内排版文本。maxHeight > 0 时只保留能放下的行（至少一行）。
func composeText(content string, x, y, width, maxHeight float64, st TextStyle, align string, ts Typesetter, res ResourceSet) (TextBox, error) {
	fontSize := st.fontSizeMM()
	lineHeight := st.lineHeightMM()
	font := resolveFontResource(st.Font, res)

	lines, err := layoutLines(content, width, font, fontSize, lineHeight, ts, "")
	if err != nil {
		return TextBox{}, err
	}
	lines = clipLines(lines, maxHeight)

	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       font.Name,
		FontSize:   fontSize,
		Color:      st.Color,
		Lines:      lines,
		Height:     linesHeight(lines),
		Align:      align,
	}, nil
}

func linesHeight(lines []TextLine) float64 {
	total := 0.0
	for _, ln := range lines {
		total += ln.GapBefore + ln.Height
	}
	return total
}

func clipLines(lines []TextLine, maxHeight float64) []TextLine {
	if maxHeight <= 0 || len(lines) <= 1 {
		return lines
	}
	total := 0.0
	for i, ln := range lines {
		total += ln.GapBefore + ln.Height
		if total > maxHeight+1e-9 && i > 0 {
			return lines[:i]
		}
	}
	return lines
}

func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	if ts == nil {
		parts := strings.Split(content, "\n")
		out := make([]TextLine, 0, len(parts))
		textHeight := fontSize
		if textHeight <= 0 {
			textHeight = 12 * PtToMm
		}
		leading := math.Max(lineHeight-textHeight, 0)
		for _, l := range parts {
			out = append(out, TextLine{
				Content:   l,
				Width:     math.Min(estimateTextWidth(l, fontSize), width),
				Height:    textHeight,
				GapBefore: leading,
			})
		}
		out[0].GapBefore = 0
		return out, nil
	}
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		height := fontSize
		if height <= 0 {
			height = lineHeight
		}
		lines = []TextLine{{Content: "", Width: 0, Height: height}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// estimateTextWidth 在没有排版后端时粗略估算文本宽度（mm）。
func estimateTextWidth(content string, fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = 12 * PtToMm
	}
	return fontSize * 0.55 * float64(len([]rune(content)))
}

// centerIn 将文本框在 [top, top+height) 区间内垂直居中。
func centerIn(tb TextBox, top, height float64) TextBox {
	tb.Y = top + math.Max(height-tb.Height, 0)/2
	return tb
}
