package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/eventpass/layout"
)

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：width/fontSize/lineHeight 入参均为毫米（mm）；创建字体面时换算为 pt。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}

	lines := wrapLines(content, width, face.TextWidth, wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Height: textHeight}}
	}
	for i := range lines {
		lines[i].Height = textHeight
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

// measureFunc 返回文本宽度（mm）。
type measureFunc func(s string) float64

var _ measureFunc = (*canvas.FontFace)(nil).TextWidth

// lineBuilder 累积当前行内容与宽度。
type lineBuilder struct {
	lines   []layout.TextLine
	buf     strings.Builder
	width   float64
	measure measureFunc
}

func (b *lineBuilder) add(s string) {
	b.buf.WriteString(s)
	b.width += b.measure(s)
}

// emit 结束当前行；force 为 true 时即使当前行为空也输出（显式换行产生的空行）。
func (b *lineBuilder) emit(force bool) {
	if b.buf.Len() == 0 {
		if force {
			b.lines = append(b.lines, layout.TextLine{})
		}
		return
	}
	b.lines = append(b.lines, layout.TextLine{Content: b.buf.String(), Width: b.width})
	b.buf.Reset()
	b.width = 0
}

// wrapLines 按 wrap 策略折行：nowrap 只尊重显式换行；break-word 纯按宽度逐字符切分；
// 默认（anywhere）优先在空白处分割，单词超宽时在词内拆分。
func wrapLines(content string, width float64, measure measureFunc, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	b := &lineBuilder{measure: measure}

	switch wrap {
	case "nowrap":
		for _, p := range strings.Split(content, "\n") {
			b.lines = append(b.lines, layout.TextLine{Content: p, Width: measure(p)})
		}
		return b.lines
	case "break-word":
		for _, r := range content {
			switch r {
			case '\r':
				continue
			case '\n':
				b.emit(true)
				continue
			}
			s := string(r)
			if b.width > 0 && b.width+measure(s) > limit {
				b.emit(false)
			}
			b.add(s)
		}
		b.emit(true)
		return b.lines
	}

	for _, token := range tokenize(content) {
		if token == "\n" {
			b.emit(true)
			continue
		}
		chunks := []string{token}
		if measure(token) > limit {
			chunks = splitByWidth(token, limit, measure)
		}
		for _, chunk := range chunks {
			if b.width > 0 && b.width+measure(chunk) > limit {
				b.emit(false)
				// 行首不保留空白
				if strings.TrimSpace(chunk) == "" {
					continue
				}
			}
			b.add(chunk)
		}
	}
	b.emit(true)
	return b.lines
}

// tokenize 将文本拆为交替的空白段与非空白段，显式换行单独成 token。
func tokenize(s string) []string {
	var tokens []string
	var buf strings.Builder
	lastWasSpace := false
	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '\r':
			continue
		case '\n':
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if buf.Len() > 0 && lastWasSpace != isSpace {
			flush()
		}
		lastWasSpace = isSpace
		buf.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, measure measureFunc) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var cur []rune
	for _, r := range token {
		cur = append(cur, r)
		if len(cur) > 1 && measure(string(cur)) > limit {
			parts = append(parts, string(cur[:len(cur)-1]))
			cur = []rune{r}
		}
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}
