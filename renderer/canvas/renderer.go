package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/eventpass/layout"
	"github.com/ByLCY/eventpass/renderer"
)

const defaultStrokeWidth = 0.2

var transparent = color.RGBA{0, 0, 0, 0}

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	fontDir string

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 是配置字体文件的根目录；为空时只接受绝对路径
	BaseDir string
}

// NewRenderer 只使用内置字体。
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions 允许从 BaseDir 读取配置的字体文件。
func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{
		fontDir:      opts.BaseDir,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// Render 将全部页面写入内存缓冲区后一次性返回，失败时不会产生半截 PDF。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo writes the PDF to w. Callers that must not emit partial output should use Render.
func (r *Renderer) RenderTo(w io.Writer, result *layout.Result) error {
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}

	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按 Layers 记录的顺序绘制元素；没有 Layers 时按类别依次绘制。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	layers := page.Layers
	if len(layers) == 0 {
		layers = defaultLayers(page)
	}
	for _, ref := range layers {
		var err error
		switch ref.Kind {
		case layout.KindLine:
			if ref.Index < len(page.Lines) {
				r.drawLine(ctx, page.Lines[ref.Index])
			}
		case layout.KindRect:
			if ref.Index < len(page.Rects) {
				r.drawRect(ctx, page.Rects[ref.Index])
			}
		case layout.KindCircle:
			if ref.Index < len(page.Circles) {
				r.drawCircle(ctx, page.Circles[ref.Index])
			}
		case layout.KindImage:
			if ref.Index < len(page.Images) {
				r.drawImage(ctx, page.Images[ref.Index])
			}
		case layout.KindText:
			if ref.Index < len(page.Texts) {
				tb := page.Texts[ref.Index]
				err = r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, resources.Fonts))
			}
		default:
			err = fmt.Errorf("未知的元素类型 %q", ref.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// defaultLayers 背景形状在前，图片与文本在后。
func defaultLayers(page layout.Page) []layout.LayerRef {
	var out []layout.LayerRef
	add := func(kind layout.Kind, n int) {
		for i := 0; i < n; i++ {
			out = append(out, layout.LayerRef{Kind: kind, Index: i})
		}
	}
	add(layout.KindRect, len(page.Rects))
	add(layout.KindCircle, len(page.Circles))
	add(layout.KindLine, len(page.Lines))
	add(layout.KindImage, len(page.Images))
	add(layout.KindText, len(page.Texts))
	return out
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	metrics := face.Metrics()
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.LineHeight
		}
		if line.Content != "" {
			// 基线位置：行顶部加上字体上升部
			ctx.DrawText(anchorX, cursorY+metrics.Ascent, canvas.NewTextLine(face, line.Content, textAlign))
		}
		cursorY += lineHeight
	}
	return nil
}

// drawImage 绘制已解码图片，分辨率由像素宽度与目标宽度（mm）推出。
func (r *Renderer) drawImage(ctx *canvas.Context, img layout.ImageBox) {
	if img.Image == nil || img.Width <= 0 {
		return
	}
	px := float64(img.Image.Bounds().Dx())
	if px <= 0 {
		return
	}
	ctx.DrawImage(img.X, img.Y, img.Image, canvas.DPMM(px/img.Width))
}

func (r *Renderer) drawLine(ctx *canvas.Context, ln layout.Line) {
	w := ln.Width
	if w <= 0 {
		w = defaultStrokeWidth
	}
	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(colorFromLayout(ln.Color))
	ctx.SetStrokeWidth(w)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
	ctx.DrawPath(ln.X1, ln.Y1, p)
}

func (r *Renderer) drawRect(ctx *canvas.Context, rc layout.Rect) {
	setFillStroke(ctx, rc.FillColor, rc.StrokeColor, rc.StrokeWidth)
	ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
}

func (r *Renderer) drawCircle(ctx *canvas.Context, c layout.Circle) {
	stroke := c.StrokeColor
	setFillStroke(ctx, c.FillColor, &stroke, c.StrokeWidth)
	// canvas.Circle 以原点为圆心
	ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
}

func setFillStroke(ctx *canvas.Context, fill, stroke *layout.Color, width float64) {
	if fill != nil {
		ctx.SetFillColor(colorFromLayout(*fill))
	} else {
		ctx.SetFillColor(transparent)
	}
	if stroke == nil {
		ctx.SetStrokeColor(transparent)
		ctx.SetStrokeWidth(0)
		return
	}
	if width <= 0 {
		width = defaultStrokeWidth
	}
	ctx.SetStrokeColor(colorFromLayout(*stroke))
	ctx.SetStrokeWidth(width)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
