package layout

// pager 是表格分页的状态机：ensureRoomFor 判断剩余空间并在不足时换页，
// advance 推进游标。换页后由 onPage 重新绘制页首内容（标题与表头）并返回正文起点。
type pager struct {
	top     float64
	bottom  float64
	cursorY float64
	rows    int // 当前页已放置的行数
	pages   int
	onPage  func(page int, top float64) float64
}

func newPager(top, bottom float64, onPage func(page int, top float64) float64) *pager {
	return &pager{top: top, bottom: bottom, onPage: onPage}
}

// begin 打开第一页。
func (p *pager) begin() { p.newPage() }

func (p *pager) newPage() {
	p.pages++
	p.rows = 0
	p.cursorY = p.top
	if p.onPage != nil {
		p.cursorY = p.onPage(p.pages, p.top)
	}
}

// fits reports whether a block of height h fits below the cursor on the current page.
func (p *pager) fits(h float64) bool {
	return p.cursorY+h <= p.bottom+1e-9
}

// ensureRoomFor 在当前页放不下高度 h 时换页，返回是否发生了换页。
// 当前页尚无正文行时不换页，避免超高行导致无限空页。
func (p *pager) ensureRoomFor(h float64) bool {
	if p.fits(h) || p.rows == 0 {
		return false
	}
	p.newPage()
	return true
}

// advance 将游标下移 h 并计入一行。
func (p *pager) advance(h float64) {
	p.cursorY += h
	p.rows++
}
