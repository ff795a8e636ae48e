package layout

import (
	"fmt"
	"math"
)

// Box 是页面上的矩形区域（mm）。
type Box struct {
	X, Y, Width, Height float64
}

func (b Box) inset(d float64) Box {
	return Box{X: b.X + d, Y: b.Y + d, Width: math.Max(b.Width-2*d, 0), Height: math.Max(b.Height-2*d, 0)}
}

func (b Box) centerX() float64 { return b.X + b.Width/2 }
func (b Box) centerY() float64 { return b.Y + b.Height/2 }

// fitInto 按比例缩放 w x h 的图片使其完整放入 box，并在 box 内居中。
func fitInto(w, h float64, box Box) Box {
	if w <= 0 || h <= 0 || box.Width <= 0 || box.Height <= 0 {
		return Box{X: box.X, Y: box.Y}
	}
	scale := math.Min(box.Width/w, box.Height/h)
	fw, fh := w*scale, h*scale
	return Box{
		X:      box.X + (box.Width-fw)/2,
		Y:      box.Y + (box.Height-fh)/2,
		Width:  fw,
		Height: fh,
	}
}

// GridGeometry 描述卡片网格：外侧边距与卡片间距均匀分配剩余空间。
// 满足 Columns*CardW + (Columns+1)*GutterX = 可用宽度，纵向同理。
type GridGeometry struct {
	Columns, Rows  int
	CardW, CardH   float64
	GutterX        float64
	GutterY        float64
	OriginX        float64 // 页面左边距
	OriginY        float64 // 页面上边距
	AvailW, AvailH float64
}

// NewGridGeometry 计算网格；卡片放不下时返回错误。
func NewGridGeometry(pageW, pageH float64, margin Margin, cols, rows int, cardW, cardH float64) (GridGeometry, error) {
	if cols <= 0 || rows <= 0 {
		return GridGeometry{}, fmt.Errorf("网格行列数必须为正数：%dx%d", cols, rows)
	}
	availW := pageW - margin.Left - margin.Right
	availH := pageH - margin.Top - margin.Bottom
	g := GridGeometry{
		Columns: cols,
		Rows:    rows,
		CardW:   cardW,
		CardH:   cardH,
		OriginX: margin.Left,
		OriginY: margin.Top,
		AvailW:  availW,
		AvailH:  availH,
		GutterX: (availW - float64(cols)*cardW) / float64(cols+1),
		GutterY: (availH - float64(rows)*cardH) / float64(rows+1),
	}
	if g.GutterX < 0 || g.GutterY < 0 {
		return GridGeometry{}, fmt.Errorf("卡片尺寸 %.1fx%.1fmm 超出可用区域 %.1fx%.1fmm", cardW, cardH, availW, availH)
	}
	return g, nil
}

// PerPage 返回每页卡片数量。
func (g GridGeometry) PerPage() int { return g.Columns * g.Rows }

// Cell 返回页内序号 i 对应的列与行。
func (g GridGeometry) Cell(i int) (col, row int) {
	return i % g.Columns, (i / g.Columns) % g.Rows
}

// Slot 返回页内序号 i 的卡片区域。
func (g GridGeometry) Slot(i int) Box {
	col, row := g.Cell(i)
	return Box{
		X:      g.OriginX + g.GutterX + float64(col)*(g.CardW+g.GutterX),
		Y:      g.OriginY + g.GutterY + float64(row)*(g.CardH+g.GutterY),
		Width:  g.CardW,
		Height: g.CardH,
	}
}
