package layout

import (
	"context"

	"github.com/ByLCY/eventpass/asset"
)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与图片解析。
type BuildOptions struct {
	Typesetter Typesetter
	Assets     AssetResolver

	// Fonts 按字体名（FontBody/FontBold/FontItalic）覆盖 DefaultResources 的 Src，空值忽略
	Fonts map[string]string
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

// AssetResolver 将存储路径解析为图片查找结果，缺失文件不会返回错误。
type AssetResolver interface {
	Resolve(ctx context.Context, path string) asset.Lookup
}

// resources 返回应用了字体覆盖的资源集合。
func (o BuildOptions) resources() ResourceSet {
	res := DefaultResources()
	for name, src := range o.Fonts {
		font, ok := res.Fonts[name]
		if !ok || src == "" {
			continue
		}
		font.Src = src
		res.Fonts[name] = font
	}
	return res
}

func (o BuildOptions) resolve(ctx context.Context, path string) asset.Lookup {
	if o.Assets == nil || path == "" {
		return asset.Lookup{Status: asset.NotFound, Path: path}
	}
	return o.Assets.Resolve(ctx, path)
}
