package layout

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ByLCY/eventpass/registration"
)

// BuildRegistrationTable 将登记记录排成多页表格：每页重复标题与表头，行不跨页，
// 序号从 1 开始并跨页连续。零条记录时输出仅含标题与表头的一页。
func BuildRegistrationTable(ctx context.Context, records []registration.Record, cfg TableConfig, opts BuildOptions) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	w, h := cfg.Page.size()
	b := &tableBuilder{
		ctx:       ctx,
		cfg:       cfg,
		opts:      opts,
		res:       opts.resources(),
		collector: newPageCollector(w, h, cfg.Page.margin()),
		startX:    cfg.StartX(),
		width:     cfg.TotalWidth(),
		rowH:      cfg.RowHeight.ToMM(),
		pad:       cfg.CellPadding.ToMM(),
	}
	b.pager = newPager(b.collector.contentTop(), b.collector.contentBottom(), b.startPage)
	b.pager.begin()
	if b.err != nil {
		return nil, b.err
	}
	if !b.pager.fits(b.rowH) {
		return nil, fmt.Errorf("行高 %.1fmm 超过表头以下的可用高度", b.rowH)
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.drawRow(i+1, rec); err != nil {
			return nil, err
		}
	}
	if err := b.drawFooters(); err != nil {
		return nil, err
	}

	return &Result{
		Pages:     b.collector.pages(),
		Resources: b.res,
		Meta: DocumentMeta{
			Title:    cfg.Title.Event + " - Registrations",
			Author:   cfg.Title.Organization,
			Subject:  cfg.Title.Section,
			Creator:  "eventpass",
			Keywords: []string{"registrations"},
		},
	}, nil
}

type tableBuilder struct {
	ctx       context.Context
	cfg       TableConfig
	opts      BuildOptions
	res       ResourceSet
	collector *pageCollector
	pager     *pager
	startX    float64
	width     float64
	rowH      float64
	pad       float64
	err       error
}

// startPage 开新页并绘制标题块与表头，返回正文起点。
func (b *tableBuilder) startPage(_ int, top float64) float64 {
	acc := b.collector.newPage()
	pageW := b.collector.width
	m := b.collector.margin
	titleW := pageW - m.Left - m.Right

	y := top
	for _, item := range []struct {
		text string
		st   TextStyle
	}{
		{b.cfg.Title.Organization, b.cfg.OrganizationStyle},
		{b.cfg.Title.Event, b.cfg.EventStyle},
		{b.cfg.Title.Section, b.cfg.SectionStyle},
	} {
		if item.text == "" {
			continue
		}
		tb, err := composeText(item.text, m.Left, y, titleW, 0, item.st, "center", b.opts.Typesetter, b.res)
		if err != nil {
			b.setErr(err)
			return y
		}
		acc.appendText(tb)
		y += tb.Height + item.st.lineHeightMM()*0.25
	}
	y += b.cfg.TitleGap.ToMM()

	headerH := b.cfg.HeaderHeight.ToMM()
	b.rule(acc, y)
	x := b.startX
	for _, col := range b.cfg.Columns {
		cw := col.Width.ToMM()
		tb, err := composeText(col.Label, x+b.pad, y, cw-2*b.pad, headerH, b.cfg.HeaderStyle, "center", b.opts.Typesetter, b.res)
		if err != nil {
			b.setErr(err)
			return y + headerH
		}
		acc.appendText(centerIn(tb, y, headerH))
		x += cw
	}
	b.rule(acc, y+headerH)
	return y + headerH
}

// drawRow 先确保剩余空间足够（必要时换页并重绘页首），再绘制一整行并推进游标。
func (b *tableBuilder) drawRow(serial int, rec registration.Record) error {
	b.pager.ensureRoomFor(b.rowH)
	if b.err != nil {
		return b.err
	}
	acc := b.collector.curr()
	top := b.pager.cursorY

	x := b.startX
	for _, col := range b.cfg.Columns {
		cw := col.Width.ToMM()
		cell := Box{X: x, Y: top, Width: cw, Height: b.rowH}
		if err := b.drawCell(acc, col.Key, cell, serial, rec); err != nil {
			return err
		}
		x += cw
	}
	b.rule(acc, top+b.rowH)
	b.pager.advance(b.rowH)
	return nil
}

func (b *tableBuilder) drawCell(acc *pageAccumulator, key ColumnKey, cell Box, serial int, rec registration.Record) error {
	inner := cell.inset(b.pad)
	var (
		text  string
		align = "left"
	)
	switch key {
	case ColSerial:
		text, align = strconv.Itoa(serial), "center"
	case ColPhoto:
		return b.drawPhoto(acc, inner, rec.PhotoPath)
	case ColName:
		text = rec.Name
	case ColCluster:
		text = rec.Cluster
	case ColUnit:
		text = rec.Unit
	case ColDesignations:
		text = rec.DesignationText()
	case ColSignature:
		return nil
	}
	tb, err := composeText(text, inner.X, inner.Y, inner.Width, inner.Height, b.cfg.BodyStyle, align, b.opts.Typesetter, b.res)
	if err != nil {
		return err
	}
	acc.appendText(centerIn(tb, inner.Y, inner.Height))
	return nil
}

// drawPhoto 绘制等比缩放后的照片；路径缺失、文件缺失或解码失败统一绘制占位文字。
func (b *tableBuilder) drawPhoto(acc *pageAccumulator, box Box, path string) error {
	lookup := b.opts.resolve(b.ctx, path)
	if lookup.OK() {
		bounds := lookup.Image.Bounds()
		fit := fitInto(float64(bounds.Dx()), float64(bounds.Dy()), box)
		acc.appendImage(ImageBox{
			Source: path,
			X:      fit.X,
			Y:      fit.Y,
			Width:  fit.Width,
			Height: fit.Height,
			Image:  lookup.Image,
		})
		return nil
	}
	tb, err := placeholder(box, b.cfg.PlaceholderText, b.cfg.PlaceholderStyle, b.opts.Typesetter, b.res)
	if err != nil {
		return err
	}
	acc.appendText(tb)
	return nil
}

func (b *tableBuilder) rule(acc *pageAccumulator, y float64) {
	acc.appendLine(Line{
		X1:    b.startX,
		Y1:    y,
		X2:    b.startX + b.width,
		Y2:    y,
		Color: b.cfg.RuleColor,
		Width: b.cfg.RuleWidth.ToMM(),
	})
}

// drawFooters 在页面下边距内写入页码，不占用可打印区域。
func (b *tableBuilder) drawFooters() error {
	total := b.collector.count()
	m := b.collector.margin
	y := b.collector.contentBottom() + b.cfg.FooterStyle.lineHeightMM()
	w := b.collector.width - m.Left - m.Right
	for i, acc := range b.collector.accs {
		text := fmt.Sprintf("Page %d / %d", i+1, total)
		tb, err := composeText(text, m.Left, y, w, 0, b.cfg.FooterStyle, "right", b.opts.Typesetter, b.res)
		if err != nil {
			return err
		}
		acc.appendText(tb)
	}
	return nil
}

func (b *tableBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// placeholder 生成在 box 内居中的灰色占位文字，表格与胸卡共用。
func placeholder(box Box, text string, st TextStyle, ts Typesetter, res ResourceSet) (TextBox, error) {
	tb, err := composeText(text, box.X, box.Y, box.Width, box.Height, st, "center", ts, res)
	if err != nil {
		return TextBox{}, err
	}
	return centerIn(tb, box.Y, box.Height), nil
}
