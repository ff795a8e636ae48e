// Package fonts 提供渲染器内置的字体数据（Go 字体家族，BSD 许可）。
package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-bold":    gobold.TTF,
	"go-italic":  goitalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-regular" 或直接 "go-regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	key = strings.TrimSuffix(key, ".ttf")
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未知字体，可用 %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 返回全部内置字体名称。
func Names() []string {
	return []string{"go-regular", "go-bold", "go-italic"}
}
