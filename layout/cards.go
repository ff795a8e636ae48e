package layout

import (
	"context"
	"strings"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/registration"
)

// BuildIDCards 将每条记录排成一张胸卡，按 Columns x Rows 网格平铺，
// 每满一页且仍有剩余记录时换页，最后一页不补空卡。零条记录时输出一张空白页。
func BuildIDCards(ctx context.Context, records []registration.Record, cfg CardConfig, opts BuildOptions) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	w, h := cfg.Page.size()
	margin := cfg.Page.margin()
	grid, err := NewGridGeometry(w, h, margin, cfg.Columns, cfg.Rows, cfg.scaled(cfg.CardWidth), cfg.scaled(cfg.CardHeight))
	if err != nil {
		return nil, err
	}

	b := &cardBuilder{
		ctx:  ctx,
		cfg:  cfg,
		opts: opts,
		res:  opts.resources(),
	}
	if cfg.TemplatePath != "" {
		b.template = opts.resolve(ctx, cfg.TemplatePath)
	}

	collector := newPageCollector(w, h, margin)
	acc := collector.newPage()
	perPage := grid.PerPage()
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot := i % perPage
		if slot == 0 && i > 0 {
			acc = collector.newPage()
		}
		if err := b.drawCard(acc, grid.Slot(slot), rec); err != nil {
			return nil, err
		}
	}

	return &Result{
		Pages:     collector.pages(),
		Resources: b.res,
		Meta: DocumentMeta{
			Title:    "ID Cards",
			Subject:  "Participant ID cards",
			Creator:  "eventpass",
			Keywords: []string{"idcards"},
		},
	}, nil
}

type cardBuilder struct {
	ctx      context.Context
	cfg      CardConfig
	opts     BuildOptions
	res      ResourceSet
	template asset.Lookup
}

// drawCard 以固定 z 序绘制：背景（模板或底色）、照片位、姓名、组别与单位、职务。
func (b *cardBuilder) drawCard(acc *pageAccumulator, card Box, rec registration.Record) error {
	cfg := b.cfg
	if b.template.OK() {
		acc.appendImage(ImageBox{
			Source: cfg.TemplatePath,
			X:      card.X,
			Y:      card.Y,
			Width:  card.Width,
			Height: card.Height,
			Image:  b.template.Image,
		})
	} else {
		fill := cfg.Background
		stroke := cfg.BorderColor
		acc.appendRect(Rect{
			X:           card.X,
			Y:           card.Y,
			Width:       card.Width,
			Height:      card.Height,
			StrokeColor: &stroke,
			StrokeWidth: cfg.BorderWidth.ToMM(),
			FillColor:   &fill,
		})
	}

	size := cfg.scaled(cfg.PhotoSize)
	slot := Box{
		X:      card.centerX() - size/2,
		Y:      card.Y + cfg.scaled(cfg.PhotoTop),
		Width:  size,
		Height: size,
	}
	if err := b.drawPhoto(acc, slot, rec.PhotoPath); err != nil {
		return err
	}

	inset := cfg.scaled(cfg.TextInset)
	textX := card.X + inset
	textW := card.Width - 2*inset
	photoBottom := slot.Y + slot.Height
	cardBottom := card.Y + card.Height

	fields := []struct {
		text   string
		offset Length
		st     TextStyle
	}{
		{rec.Name, cfg.NameOffset, cfg.NameStyle},
		{ClusterUnit(rec), cfg.InfoOffset, cfg.InfoStyle},
		{rec.DesignationText(), cfg.DesignationOffset, cfg.DesignationStyle},
	}
	for i, f := range fields {
		y := photoBottom + cfg.scaled(f.offset)
		limit := cardBottom - inset
		if i+1 < len(fields) {
			limit = photoBottom + cfg.scaled(fields[i+1].offset)
		}
		tb, err := composeText(f.text, textX, y, textW, limit-y, f.st, "center", b.opts.Typesetter, b.res)
		if err != nil {
			return err
		}
		acc.appendText(tb)
	}
	return nil
}

// drawPhoto 绘制照片位：先放照片或占位文字，再描出圆形或矩形边框。
// 圆形照片位中照片被裁成正方形并遮罩为内切圆；矩形照片位按比例适配、不裁剪。
func (b *cardBuilder) drawPhoto(acc *pageAccumulator, slot Box, path string) error {
	cfg := b.cfg
	circle := !strings.EqualFold(cfg.PhotoShape, "rect")
	lookup := b.opts.resolve(b.ctx, path)
	img := lookup.Image
	if lookup.OK() && circle {
		img = circularPhoto(img)
	}
	if lookup.OK() && img != nil {
		bounds := img.Bounds()
		fit := fitInto(float64(bounds.Dx()), float64(bounds.Dy()), slot)
		acc.appendImage(ImageBox{
			Source: path,
			X:      fit.X,
			Y:      fit.Y,
			Width:  fit.Width,
			Height: fit.Height,
			Image:  img,
		})
	} else {
		tb, err := placeholder(slot, cfg.PlaceholderText, cfg.PlaceholderStyle, b.opts.Typesetter, b.res)
		if err != nil {
			return err
		}
		acc.appendText(tb)
	}

	border := cfg.PhotoBorder
	if !circle {
		acc.appendRect(Rect{
			X:           slot.X,
			Y:           slot.Y,
			Width:       slot.Width,
			Height:      slot.Height,
			StrokeColor: &border,
			StrokeWidth: cfg.BorderWidth.ToMM(),
		})
		return nil
	}
	acc.appendCircle(Circle{
		CX:          slot.centerX(),
		CY:          slot.centerY(),
		R:           slot.Width / 2,
		StrokeColor: border,
		StrokeWidth: cfg.BorderWidth.ToMM(),
	})
	return nil
}

// ClusterUnit 返回胸卡第二行 "<cluster> – <unit>"，任一为空时只显示另一项。
func ClusterUnit(rec registration.Record) string {
	switch {
	case rec.Cluster == "":
		return rec.Unit
	case rec.Unit == "":
		return rec.Cluster
	default:
		return rec.Cluster + " – " + rec.Unit
	}
}
