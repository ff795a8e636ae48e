package layout

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"reflect"
	"testing"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/registration"
)

func buildCards(t *testing.T, records []registration.Record, assets mapAssets) *Result {
	t.Helper()
	res, err := BuildIDCards(context.Background(), records, DefaultCardConfig(), testOptions(assets))
	if err != nil {
		t.Fatalf("胸卡布局失败: %v", err)
	}
	return res
}

func defaultGrid(t *testing.T) GridGeometry {
	t.Helper()
	cfg := DefaultCardConfig()
	w, h := cfg.Page.size()
	g, err := NewGridGeometry(w, h, cfg.Page.margin(), cfg.Columns, cfg.Rows, cfg.scaled(cfg.CardWidth), cfg.scaled(cfg.CardHeight))
	if err != nil {
		t.Fatalf("网格计算失败: %v", err)
	}
	return g
}

func TestCardsPagination(t *testing.T) {
	cases := []struct {
		n     int
		pages []int // 每页卡片数
	}{
		{0, []int{0}},
		{1, []int{1}},
		{25, []int{25}},
		{26, []int{25, 1}},
		{51, []int{25, 25, 1}},
	}
	for _, tc := range cases {
		res := buildCards(t, makeRecords(tc.n), nil)
		if len(res.Pages) != len(tc.pages) {
			t.Fatalf("%d 张卡片应输出 %d 页，实际 %d", tc.n, len(tc.pages), len(res.Pages))
		}
		for i, want := range tc.pages {
			// 无模板时每张卡片一个背景矩形
			if got := len(res.Pages[i].Rects); got != want {
				t.Fatalf("%d 张卡片第 %d 页应有 %d 张，实际 %d", tc.n, i+1, want, got)
			}
		}
	}
}

func TestCardsZeroRecordsBlankPage(t *testing.T) {
	res := buildCards(t, nil, nil)
	p := res.Pages[0]
	if len(p.Texts)+len(p.Images)+len(p.Rects)+len(p.Circles)+len(p.Lines) != 0 {
		t.Fatalf("零条记录应输出空白页")
	}
	if p.Width != 297 || p.Height != 420 {
		t.Fatalf("胸卡页面应为 A3 纵向，实际 %gx%g", p.Width, p.Height)
	}
}

func TestCardsCellPositions(t *testing.T) {
	g := defaultGrid(t)
	res := buildCards(t, makeRecords(30), nil)
	for i := 0; i < 30; i++ {
		page := i / 25
		rect := res.Pages[page].Rects[i%25]
		col, row := i%5, (i/5)%5
		wantX := g.OriginX + g.GutterX + float64(col)*(g.CardW+g.GutterX)
		wantY := g.OriginY + g.GutterY + float64(row)*(g.CardH+g.GutterY)
		if math.Abs(rect.X-wantX) > 1e-9 || math.Abs(rect.Y-wantY) > 1e-9 {
			t.Fatalf("卡片 %d 位置错误: (%g,%g) 期望 (%g,%g)", i, rect.X, rect.Y, wantX, wantY)
		}
		if c, r := g.Cell(i % 25); c != col || r != row {
			t.Fatalf("卡片 %d 网格坐标错误: (%d,%d)", i, c, r)
		}
	}
}

func TestGridEquation(t *testing.T) {
	g := defaultGrid(t)
	if d := float64(g.Columns)*g.CardW + float64(g.Columns+1)*g.GutterX - g.AvailW; math.Abs(d) > 1e-9 {
		t.Fatalf("横向间距方程不成立: diff=%g", d)
	}
	if d := float64(g.Rows)*g.CardH + float64(g.Rows+1)*g.GutterY - g.AvailH; math.Abs(d) > 1e-9 {
		t.Fatalf("纵向间距方程不成立: diff=%g", d)
	}
	if math.Abs(g.GutterX-3.79) > 0.01 || math.Abs(g.GutterY-5.91) > 0.01 {
		t.Fatalf("默认间距不符合预期: %gx%g", g.GutterX, g.GutterY)
	}
}

func TestGridNegativeGutter(t *testing.T) {
	m := Margin{Top: 10, Right: 10, Bottom: 10, Left: 10}
	if _, err := NewGridGeometry(100, 100, m, 5, 5, 20, 10); err == nil {
		t.Fatalf("卡片放不下时应返回错误")
	}
	if _, err := NewGridGeometry(100, 100, m, 0, 5, 10, 10); err == nil {
		t.Fatalf("列数为 0 时应返回错误")
	}
}

func TestCardsOversizedConfig(t *testing.T) {
	cfg := DefaultCardConfig()
	cfg.PointsPerCM = 40
	if _, err := BuildIDCards(context.Background(), makeRecords(1), cfg, testOptions(nil)); err == nil {
		t.Fatalf("卡片超出页面时应返回错误")
	}
}

func TestCardsTemplateDrawnFirst(t *testing.T) {
	cfg := DefaultCardConfig()
	assets := mapAssets{cfg.TemplatePath: found(59, 84)}
	res := buildCards(t, makeRecords(2), assets)
	p := res.Pages[0]
	if len(p.Rects) != 0 {
		t.Fatalf("有模板时不应绘制底色矩形")
	}
	if len(p.Images) != 2 {
		t.Fatalf("应为每张卡片绘制模板，实际 %d", len(p.Images))
	}
	if p.Layers[0].Kind != KindImage {
		t.Fatalf("模板必须最先绘制: %+v", p.Layers[0])
	}
	g := defaultGrid(t)
	if p.Images[0].Width != g.CardW || p.Images[0].Height != g.CardH {
		t.Fatalf("模板应铺满卡片: %gx%g", p.Images[0].Width, p.Images[0].Height)
	}
}

func TestCardsZOrder(t *testing.T) {
	rec := makeRecords(1)
	rec[0].PhotoPath = "photos/a.jpg"
	res := buildCards(t, rec, mapAssets{"photos/a.jpg": found(100, 100)})
	var kinds []Kind
	for _, l := range res.Pages[0].Layers {
		kinds = append(kinds, l.Kind)
	}
	want := []Kind{KindRect, KindImage, KindCircle, KindText, KindText, KindText}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("绘制顺序错误: %v", kinds)
	}
	if got := pageTexts(res.Pages[0]); got[0] != "Person 1" || got[1] != "Cluster – Unit" || got[2] != "Member" {
		t.Fatalf("卡片文字错误: %v", got)
	}
}

func TestCardsPlaceholderIdentical(t *testing.T) {
	assets := mapAssets{"photos/bad.webp": {Status: asset.DecodeError, Err: errors.New("truncated")}}
	var pages []Page
	for _, path := range []string{"", "photos/none.png", "photos/bad.webp"} {
		rec := makeRecords(1)
		rec[0].PhotoPath = path
		pages = append(pages, buildCards(t, rec, assets).Pages[0])
	}
	for i := 1; i < len(pages); i++ {
		if !reflect.DeepEqual(pages[0], pages[i]) {
			t.Fatalf("占位输出不一致: case 0 vs case %d", i)
		}
	}
	if !containsText(pages[0], "No Photo") {
		t.Fatalf("缺少占位文字: %v", pageTexts(pages[0]))
	}
	for _, tb := range pages[0].Texts {
		if tb.Content == "No Photo" && tb.Font != FontItalic {
			t.Fatalf("占位文字应使用斜体: %s", tb.Font)
		}
	}
}

func TestCardsRectPhotoShape(t *testing.T) {
	cfg := DefaultCardConfig()
	cfg.PhotoShape = "rect"
	res, err := BuildIDCards(context.Background(), makeRecords(1), cfg, testOptions(nil))
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	p := res.Pages[0]
	if len(p.Circles) != 0 || len(p.Rects) != 2 {
		t.Fatalf("矩形照片框应绘制为矩形: rects=%d circles=%d", len(p.Rects), len(p.Circles))
	}
}

func opaquePhoto(w, h int) asset.Lookup {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 200, G: 40, B: 40, A: 255}), image.Point{}, draw.Src)
	return asset.Lookup{Status: asset.Found, Image: img}
}

func TestCardsCirclePhotoMasked(t *testing.T) {
	rec := makeRecords(1)
	rec[0].PhotoPath = "photos/wide.jpg"
	res := buildCards(t, rec, mapAssets{"photos/wide.jpg": opaquePhoto(400, 300)})
	p := res.Pages[0]
	if len(p.Images) != 1 || len(p.Circles) != 1 {
		t.Fatalf("应有一张照片与一个圆框: images=%d circles=%d", len(p.Images), len(p.Circles))
	}
	box, c := p.Images[0], p.Circles[0]
	if math.Abs(box.Width-2*c.R) > 1e-9 || math.Abs(box.Height-2*c.R) > 1e-9 {
		t.Fatalf("照片应铺满圆的外接正方形: %gx%g r=%g", box.Width, box.Height, c.R)
	}
	if math.Abs(box.X+box.Width/2-c.CX) > 1e-9 || math.Abs(box.Y+box.Height/2-c.CY) > 1e-9 {
		t.Fatalf("照片中心应与圆心重合")
	}

	b := box.Image.Bounds()
	if b.Dx() != 300 || b.Dy() != 300 {
		t.Fatalf("照片应裁为 300x300 正方形，实际 %v", b)
	}
	r := float64(b.Dx()) / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x-b.Min.X)+0.5-r, float64(y-b.Min.Y)+0.5-r)
			_, _, _, a := box.Image.At(x, y).RGBA()
			switch {
			case d > r+1 && a != 0:
				t.Fatalf("圆外像素 (%d,%d) 不透明: alpha=%d", x, y, a)
			case d < r-1 && a != 0xffff:
				t.Fatalf("圆内像素 (%d,%d) 应完全不透明: alpha=%d", x, y, a)
			}
		}
	}
}

func TestCardsRectPhotoNotMasked(t *testing.T) {
	cfg := DefaultCardConfig()
	cfg.PhotoShape = "rect"
	rec := makeRecords(1)
	rec[0].PhotoPath = "photos/wide.jpg"
	photo := opaquePhoto(400, 300)
	res, err := BuildIDCards(context.Background(), rec, cfg, testOptions(mapAssets{"photos/wide.jpg": photo}))
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	box := res.Pages[0].Images[0]
	if box.Image != photo.Image {
		t.Fatalf("矩形照片位不应裁剪或遮罩照片")
	}
	if math.Abs(box.Width/box.Height-4.0/3.0) > 1e-9 {
		t.Fatalf("矩形照片应保持原始比例: %gx%g", box.Width, box.Height)
	}
}

func TestClusterUnit(t *testing.T) {
	cases := []struct {
		cluster, unit, want string
	}{
		{"North", "U1", "North – U1"},
		{"", "U1", "U1"},
		{"North", "", "North"},
		{"", "", ""},
	}
	for _, tc := range cases {
		got := ClusterUnit(registration.Record{Cluster: tc.cluster, Unit: tc.unit})
		if got != tc.want {
			t.Fatalf("ClusterUnit(%q,%q)=%q 期望 %q", tc.cluster, tc.unit, got, tc.want)
		}
	}
}
