package layout

import "fmt"

// 版式常量以不可变配置值的形式传入每次布局调用；默认值即组织统一使用的印刷版式。

// PageSpec 描述纸张尺寸与四周等宽边距。
type PageSpec struct {
	Width  Length
	Height Length
	Margin Length
}

// A4Portrait 和 A3Portrait 为两种导出使用的纸张。
func A4Portrait(margin Length) PageSpec {
	return PageSpec{Width: MM(210), Height: MM(297), Margin: margin}
}

func A3Portrait(margin Length) PageSpec {
	return PageSpec{Width: MM(297), Height: MM(420), Margin: margin}
}

func (p PageSpec) size() (float64, float64) { return p.Width.ToMM(), p.Height.ToMM() }

func (p PageSpec) margin() Margin {
	m := p.Margin.ToMM()
	return Margin{Top: m, Right: m, Bottom: m, Left: m}
}

// TextStyle 描述一段文本的字体、字号、行高与颜色。
type TextStyle struct {
	Font       string
	Size       Length
	LineHeight LineHeightSpec
	Color      Color
}

func (s TextStyle) fontSizeMM() float64   { return s.Size.ToMM() }
func (s TextStyle) lineHeightMM() float64 { return s.LineHeight.Resolve(s.Size, UnitMM) }

// ColumnKey 标识登记表中的列。
type ColumnKey string

const (
	ColSerial       ColumnKey = "serial"
	ColPhoto        ColumnKey = "photo"
	ColName         ColumnKey = "name"
	ColCluster      ColumnKey = "cluster"
	ColUnit         ColumnKey = "unit"
	ColDesignations ColumnKey = "designations"
	ColSignature    ColumnKey = "signature"
)

// Column 是固定宽度的表格列。
type Column struct {
	Key   ColumnKey
	Label string
	Width Length
}

// Title 是每页重复的标题块内容。
type Title struct {
	Organization string
	Event        string
	Section      string
}

// TableConfig 是登记表（A4 纵向）的版式常量。
type TableConfig struct {
	Page    PageSpec
	Columns []Column
	Title   Title

	HeaderHeight Length
	RowHeight    Length
	CellPadding  Length
	TitleGap     Length
	RuleWidth    Length
	RuleColor    Color

	OrganizationStyle TextStyle
	EventStyle        TextStyle
	SectionStyle      TextStyle
	HeaderStyle       TextStyle
	BodyStyle         TextStyle
	PlaceholderStyle  TextStyle
	FooterStyle       TextStyle
	PlaceholderText   string
}

var (
	black     = Color{R: 0, G: 0, B: 0}
	darkGray  = Color{R: 60, G: 60, B: 60}
	midGray   = Color{R: 140, G: 140, B: 140}
	lightGray = Color{R: 200, G: 200, B: 200}
)

func style(font string, size float64, col Color) TextStyle {
	return TextStyle{
		Font:       font,
		Size:       Pt(size),
		LineHeight: LineHeightSpec{Kind: LineHeightFactor, Factor: 1.2},
		Color:      col,
	}
}

// DefaultTableConfig 返回登记表的固定版式：A4 纵向、50pt 边距、七列共 495pt。
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Page: A4Portrait(Pt(50)),
		Columns: []Column{
			{Key: ColSerial, Label: "S/N", Width: Pt(30)},
			{Key: ColPhoto, Label: "Photo", Width: Pt(55)},
			{Key: ColName, Label: "Name", Width: Pt(100)},
			{Key: ColCluster, Label: "Cluster", Width: Pt(70)},
			{Key: ColUnit, Label: "Unit", Width: Pt(70)},
			{Key: ColDesignations, Label: "Designations", Width: Pt(100)},
			{Key: ColSignature, Label: "Signature", Width: Pt(70)},
		},
		Title: Title{
			Organization: "Organization",
			Event:        "Annual Gathering",
			Section:      "Registered Participants",
		},
		HeaderHeight:      Pt(24),
		RowHeight:         Pt(60),
		CellPadding:       Pt(4),
		TitleGap:          Pt(10),
		RuleWidth:         Pt(0.75),
		RuleColor:         darkGray,
		OrganizationStyle: style(FontBold, 16, black),
		EventStyle:        style(FontBody, 13, black),
		SectionStyle:      style(FontBold, 11, darkGray),
		HeaderStyle:       style(FontBold, 9, black),
		BodyStyle:         style(FontBody, 9, black),
		PlaceholderStyle:  style(FontItalic, 8, midGray),
		FooterStyle:       style(FontBody, 8, midGray),
		PlaceholderText:   "N/A",
	}
}

// TotalWidth 返回所有列宽之和（mm）。
func (c TableConfig) TotalWidth() float64 {
	total := 0.0
	for _, col := range c.Columns {
		total += col.Width.ToMM()
	}
	return total
}

// StartX 返回表格水平居中后的左边界（mm）。
func (c TableConfig) StartX() float64 {
	w, _ := c.Page.size()
	return (w - c.TotalWidth()) / 2
}

func (c TableConfig) validate() error {
	if len(c.Columns) == 0 {
		return fmt.Errorf("表格至少需要一列")
	}
	w, h := c.Page.size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("无效的纸张尺寸 %gx%g", w, h)
	}
	if c.RowHeight.ToMM() <= 0 || c.HeaderHeight.ToMM() <= 0 {
		return fmt.Errorf("行高与表头高度必须为正数")
	}
	return nil
}

// CardConfig 是胸卡网格（A3 纵向、5x5）的版式常量。
// 卡片内的长度均为物理尺寸（cm），按 PointsPerCM 的固定密度换算为页面单位。
type CardConfig struct {
	Page        PageSpec
	Columns     int
	Rows        int
	CardWidth   Length
	CardHeight  Length
	PointsPerCM float64

	Background   Color
	BorderColor  Color
	BorderWidth  Length
	TemplatePath string

	PhotoShape        string // circle | rect
	PhotoSize         Length
	PhotoTop          Length
	PhotoBorder       Color
	NameOffset        Length // 相对照片底部
	InfoOffset        Length
	DesignationOffset Length
	TextInset         Length

	NameStyle        TextStyle
	InfoStyle        TextStyle
	DesignationStyle TextStyle
	PlaceholderStyle TextStyle
	PlaceholderText  string
}

// DefaultCardConfig 返回胸卡的固定版式：5.9cm x 8.4cm，每页 25 张。
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Page:              A3Portrait(Pt(20)),
		Columns:           5,
		Rows:              5,
		CardWidth:         CM(5.9),
		CardHeight:        CM(8.4),
		PointsPerCM:       25,
		Background:        Color{R: 245, G: 247, B: 250},
		BorderColor:       lightGray,
		BorderWidth:       Pt(0.5),
		TemplatePath:      "templates/idcard.png",
		PhotoShape:        "circle",
		PhotoSize:         CM(3.0),
		PhotoTop:          CM(1.4),
		PhotoBorder:       darkGray,
		NameOffset:        CM(0.4),
		InfoOffset:        CM(1.2),
		DesignationOffset: CM(1.9),
		TextInset:         CM(0.3),
		NameStyle:         style(FontBold, 10, black),
		InfoStyle:         style(FontBody, 8, darkGray),
		DesignationStyle:  style(FontBody, 7, darkGray),
		PlaceholderStyle:  style(FontItalic, 8, midGray),
		PlaceholderText:   "No Photo",
	}
}

// PerPage 返回每页卡片数量。
func (c CardConfig) PerPage() int { return c.Columns * c.Rows }

// scaled 将卡片内的物理长度按固定密度换算为页面毫米。
func (c CardConfig) scaled(l Length) float64 {
	cm := l.ToMM() / 10
	return Pt(cm * c.PointsPerCM).ToMM()
}

func (c CardConfig) validate() error {
	if c.Columns <= 0 || c.Rows <= 0 {
		return fmt.Errorf("网格行列数必须为正数：%dx%d", c.Columns, c.Rows)
	}
	if c.PointsPerCM <= 0 {
		return fmt.Errorf("换算密度必须为正数：%g", c.PointsPerCM)
	}
	return nil
}
