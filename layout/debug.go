package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PageSummary 统计单页各类元素数量，便于对比两次布局结果。
type PageSummary struct {
	Index   int `json:"index"`
	Texts   int `json:"texts"`
	Images  int `json:"images"`
	Lines   int `json:"lines"`
	Rects   int `json:"rects"`
	Circles int `json:"circles"`
}

// Summarize 返回每页的元素计数。
func Summarize(res *Result) []PageSummary {
	if res == nil {
		return nil
	}
	out := make([]PageSummary, len(res.Pages))
	for i, p := range res.Pages {
		out[i] = PageSummary{
			Index:   i + 1,
			Texts:   len(p.Texts),
			Images:  len(p.Images),
			Lines:   len(p.Lines),
			Rects:   len(p.Rects),
			Circles: len(p.Circles),
		}
	}
	return out
}

type debugDocument struct {
	Summary []PageSummary `json:"summary"`
	*Result
}

// EncodeDebugJSON 将布局结果连同每页统计写为缩进 JSON；图片像素不会输出。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return fmt.Errorf("布局结果为空")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(debugDocument{Summary: Summarize(res), Result: res})
}

// WriteDebugJSON 将调试 JSON 写入 path，必要时创建目录。
func WriteDebugJSON(res *Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
