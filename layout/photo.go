package layout

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// circleKappa 为四段三次贝塞尔曲线逼近圆时控制点到端点的比例。
const circleKappa = 0.5522847498

// circularPhoto 从图片中央裁出最大正方形，再以内切圆为 alpha 遮罩，圆外像素完全透明。
// 照片位为圆形时，照片会铺满圆而不是露出四角。
func circularPhoto(src image.Image) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 {
		return nil
	}
	origin := image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2)

	r := float32(side) / 2
	k := r * circleKappa
	z := vector.NewRasterizer(side, side)
	z.MoveTo(r, 0)
	z.CubeTo(r+k, 0, 2*r, r-k, 2*r, r)
	z.CubeTo(2*r, r+k, r+k, 2*r, r, 2*r)
	z.CubeTo(r-k, 2*r, 0, r+k, 0, r)
	z.CubeTo(0, r-k, r-k, 0, r, 0)
	z.ClosePath()
	mask := image.NewAlpha(image.Rect(0, 0, side, side))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	dst := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.DrawMask(dst, dst.Bounds(), src, origin, mask, image.Point{}, draw.Src)
	return dst
}
