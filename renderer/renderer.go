package renderer

import "github.com/ByLCY/eventpass/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 在内存中完成整份文档后返回字节切片，出错时不返回任何部分内容。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
