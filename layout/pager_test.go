package layout

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestPagerBreaksOnlyWhenFull(t *testing.T) {
	var started []int
	p := newPager(10, 100, func(page int, top float64) float64 {
		started = append(started, page)
		return top + 20 // 页首占 20
	})
	p.begin()
	if p.cursorY != 30 {
		t.Fatalf("首页正文起点应为 30，实际 %g", p.cursorY)
	}
	for i := 0; i < 3; i++ {
		if p.ensureRoomFor(20) {
			t.Fatalf("第 %d 行不应换页", i+1)
		}
		p.advance(20)
	}
	// 30 + 3*20 = 90，剩余 10 放不下 20
	if !p.ensureRoomFor(20) {
		t.Fatalf("空间不足时应换页")
	}
	if p.pages != 2 || p.rows != 0 || p.cursorY != 30 {
		t.Fatalf("换页后状态错误: pages=%d rows=%d cursor=%g", p.pages, p.rows, p.cursorY)
	}
	if len(started) != 2 {
		t.Fatalf("每页都应重绘页首，实际 %v", started)
	}
}

func TestPagerExactFit(t *testing.T) {
	p := newPager(0, 100, nil)
	p.begin()
	p.advance(60)
	if p.ensureRoomFor(40) {
		t.Fatalf("恰好放满时不应换页")
	}
}

func TestPagerOversizedRowOnEmptyPage(t *testing.T) {
	p := newPager(0, 50, nil)
	p.begin()
	if p.ensureRoomFor(80) {
		t.Fatalf("空页上的超高行不应触发换页")
	}
	p.advance(80)
	if !p.ensureRoomFor(80) {
		t.Fatalf("已有内容时应换页")
	}
	if p.pages != 2 {
		t.Fatalf("应只新增一页，实际 %d", p.pages)
	}
}

func TestFitInto(t *testing.T) {
	box := Box{X: 10, Y: 10, Width: 40, Height: 20}
	got := fitInto(200, 200, box)
	if got.Width != 20 || got.Height != 20 || got.X != 20 || got.Y != 10 {
		t.Fatalf("正方形图片应在宽框中水平居中: %+v", got)
	}
	got = fitInto(400, 100, box)
	if math.Abs(got.Width-40) > 1e-9 || math.Abs(got.Height-10) > 1e-9 || math.Abs(got.Y-15) > 1e-9 {
		t.Fatalf("宽图应贴满宽度并垂直居中: %+v", got)
	}
	if z := fitInto(0, 10, box); z.Width != 0 || z.Height != 0 {
		t.Fatalf("零尺寸图片应返回空框: %+v", z)
	}
}

func TestComposeTextClipsToHeight(t *testing.T) {
	st := style(FontBody, 10, black)
	fontMM := st.fontSizeMM()
	tb, err := composeText("a\nb\nc\nd", 0, 0, 50, fontMM*2.5, st, "left", stubTypesetter{}, DefaultResources())
	if err != nil {
		t.Fatalf("composeText error: %v", err)
	}
	if len(tb.Lines) != 2 {
		t.Fatalf("应裁剪为 2 行，实际 %d", len(tb.Lines))
	}
	if math.Abs(tb.Height-linesHeight(tb.Lines)) > 1e-9 {
		t.Fatalf("Height 应等于各行高度之和")
	}
	// 至少保留一行
	tb, _ = composeText("a\nb", 0, 0, 50, 0.1, st, "left", stubTypesetter{}, DefaultResources())
	if len(tb.Lines) != 1 {
		t.Fatalf("高度不足时至少保留一行，实际 %d", len(tb.Lines))
	}
}

func TestComposeTextWithoutTypesetter(t *testing.T) {
	st := style(FontBold, 12, black)
	tb, err := composeText("x\ny", 0, 0, 30, 0, st, "center", nil, DefaultResources())
	if err != nil {
		t.Fatalf("composeText error: %v", err)
	}
	if len(tb.Lines) != 2 || tb.Lines[0].GapBefore != 0 || tb.Font != FontBold {
		t.Fatalf("无排版后端时应按换行拆分: %+v", tb)
	}
}

func TestEncodeDebugJSON(t *testing.T) {
	res := buildCards(t, makeRecords(3), nil)
	var buf bytes.Buffer
	if err := EncodeDebugJSON(&buf, res); err != nil {
		t.Fatalf("EncodeDebugJSON error: %v", err)
	}
	var doc struct {
		Summary []PageSummary `json:"summary"`
		Pages   []Page        `json:"pages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if len(doc.Summary) != 1 || doc.Summary[0].Rects != 3 || len(doc.Pages) != 1 {
		t.Fatalf("调试统计错误: %+v", doc.Summary)
	}
	if err := EncodeDebugJSON(&buf, nil); err == nil {
		t.Fatalf("空结果应返回错误")
	}
}
