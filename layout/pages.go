package layout

// pageAccumulator 收集单页元素，并按追加顺序记录 z 序。
type pageAccumulator struct {
	texts   []TextBox
	images  []ImageBox
	lines   []Line
	rects   []Rect
	circles []Circle
	layers  []LayerRef
}

func (p *pageAccumulator) appendText(tb TextBox) {
	p.layers = append(p.layers, LayerRef{Kind: KindText, Index: len(p.texts)})
	p.texts = append(p.texts, tb)
}

func (p *pageAccumulator) appendImage(img ImageBox) {
	p.layers = append(p.layers, LayerRef{Kind: KindImage, Index: len(p.images)})
	p.images = append(p.images, img)
}

func (p *pageAccumulator) appendLine(ln Line) {
	p.layers = append(p.layers, LayerRef{Kind: KindLine, Index: len(p.lines)})
	p.lines = append(p.lines, ln)
}

func (p *pageAccumulator) appendRect(rc Rect) {
	p.layers = append(p.layers, LayerRef{Kind: KindRect, Index: len(p.rects)})
	p.rects = append(p.rects, rc)
}

func (p *pageAccumulator) appendCircle(c Circle) {
	p.layers = append(p.layers, LayerRef{Kind: KindCircle, Index: len(p.circles)})
	p.circles = append(p.circles, c)
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	return &pageCollector{width: width, height: height, margin: margin}
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) count() int { return len(pc.accs) }

func (pc *pageCollector) contentTop() float64 { return pc.margin.Top }

// contentBottom 为可打印区域底部 = 页面高度 - 下边距。
func (pc *pageCollector) contentBottom() float64 { return pc.height - pc.margin.Bottom }

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:   pc.width,
			Height:  pc.height,
			Margin:  pc.margin,
			Texts:   acc.texts,
			Images:  acc.images,
			Lines:   acc.lines,
			Rects:   acc.rects,
			Circles: acc.circles,
			Layers:  acc.layers,
		}
	}
	return out
}
