package layout

import "image"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标与尺寸均以毫米为单位，原点在页面左上角。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录渲染所需的字体定义。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径、内置 embed 路径或 builtin:* 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
// Layers 决定各元素的绘制先后（z 序），渲染器按此顺序逐个绘制。
type Page struct {
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Margin  Margin     `json:"margin"`
	Texts   []TextBox  `json:"texts"`
	Images  []ImageBox `json:"images"`
	Lines   []Line     `json:"lines,omitempty"`
	Rects   []Rect     `json:"rects,omitempty"`
	Circles []Circle   `json:"circles,omitempty"`
	Layers  []LayerRef `json:"layers"`
}

// Kind 标识 LayerRef 指向的元素列表。
type Kind string

const (
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindLine   Kind = "line"
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
)

// LayerRef 指向某一类元素列表中的下标。
type LayerRef struct {
	Kind  Kind `json:"kind"`
	Index int  `json:"index"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	Color      Color      `json:"color"`
	Lines      []TextLine `json:"lines"`
	Height     float64    `json:"height"`
	Align      string     `json:"align,omitempty"` // 文本水平对齐方式：left/center/right（默认 left）
	Wrap       string     `json:"wrap,omitempty"`  // 折行策略：anywhere(默认)/break-word/nowrap
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ImageBox 描述已解码图片的绘制位置与尺寸（已按比例适配）。
// Image 不参与 JSON 输出，Source 仅用于调试。
type ImageBox struct {
	Source string      `json:"source"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Image  image.Image `json:"-"`
}

// 基本图形：直线、矩形、圆形（单位均为 mm）。
// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor *Color  `json:"strokeColor,omitempty"` // 为空表示不描边
	StrokeWidth float64 `json:"strokeWidth"`           // mm
	FillColor   *Color  `json:"fillColor,omitempty"`   // 为空表示不填充
}

// Circle 表示一个圆。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"` // mm
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
