package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/eventpass/fonts"
	"github.com/ByLCY/eventpass/layout"
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

// ensureFontFamily 按字体资源缓存字体家族；加载失败时退回内置常规字体。
func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = layout.FontBody
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// loadFontBytes 读取字体数据：embed: 前缀取内置字体，其余视为字体目录下的文件。
func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	switch {
	case font.Src == "":
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	case strings.HasPrefix(font.Src, "embed:"):
		return fonts.Load(font.Src)
	}
	path, err := r.fontPath(font.Src)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", font.Name, err)
	}
	return data, nil
}

func (r *Renderer) fontPath(src string) (string, error) {
	if filepath.IsAbs(src) {
		return src, nil
	}
	if r.fontDir == "" {
		return "", fmt.Errorf("未配置字体目录，无法读取相对路径 %s", src)
	}
	return filepath.Join(r.fontDir, src), nil
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load("go-regular")
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("eventpass-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[layout.FontBody]; ok {
		return font
	}
	return layout.FontResource{Name: layout.FontBody, Src: "embed:go-regular"}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}
