package terrain

import (
	"image"
	"image/color"
	"math"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/pkg/models"
)

// AspectThresholdDeg минимальный уклон, окрашиваемый в растре экспозиций
const AspectThresholdDeg = 20.0

type slopeBand struct {
	minDeg float64
	color  color.NRGBA
}

// slopeBands проверяются от самого крутого
var slopeBands = []slopeBand{
	{45, color.NRGBA{R: 26, G: 0, B: 51, A: 204}},
	{40, color.NRGBA{R: 153, G: 0, B: 0, A: 204}},
	{35, color.NRGBA{R: 255, G: 0, B: 0, A: 204}},
	{30, color.NRGBA{R: 255, G: 128, B: 0, A: 204}},
	{27, color.NRGBA{R: 255, G: 255, B: 0, A: 204}},
}

// AspectColors палитра растра экспозиций
var AspectColors = map[models.AspectBucket]color.NRGBA{
	models.AspectN:  {R: 59, G: 130, B: 246, A: 204},
	models.AspectNE: {R: 34, G: 211, B: 238, A: 204},
	models.AspectE:  {R: 34, G: 197, B: 94, A: 204},
	models.AspectSE: {R: 163, G: 230, B: 53, A: 204},
	models.AspectS:  {R: 239, G: 68, B: 68, A: 204},
	models.AspectSW: {R: 251, G: 146, B: 60, A: 204},
	models.AspectW:  {R: 250, G: 204, B: 21, A: 204},
	models.AspectNW: {R: 168, G: 85, B: 247, A: 204},
}

// Gradient градиент высоты в пикселе, метры на метр
type Gradient struct {
	DzDx, DzDy float64
}

// SlopeDeg крутизна градиента в градусах
func (g Gradient) SlopeDeg() float64 {
	return math.Atan(math.Hypot(g.DzDx, g.DzDy)) * 180 / math.Pi
}

// AspectDeg азимут наискорейшего спуска в [0, 360). Строки пикселей растут
// к югу, поэтому северная составляющая спуска равна +DzDy.
func (g Gradient) AspectDeg() float64 {
	bearing := math.Mod(math.Atan2(-g.DzDx, g.DzDy)*180/math.Pi+360, 360)
	if bearing >= 360 {
		return 0
	}
	return bearing
}

// gradients считает прямые разности с правым и нижним соседом. Пиксели
// последнего столбца и строки используют собственную высоту.
func gradients(img image.Image, zoom, y int, visit func(px, py int, g Gradient)) {
	mpp := MetersPerPixel(zoom, y)
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	elevations := make([]float64, w*h)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			elevations[py*w+px] = ElevationAt(img, px, py)
		}
	}

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			e0 := elevations[py*w+px]
			eRight, eBelow := e0, e0
			if px < w-1 {
				eRight = elevations[py*w+px+1]
			}
			if py < h-1 {
				eBelow = elevations[(py+1)*w+px]
			}
			visit(px, py, Gradient{
				DzDx: (eRight - e0) / mpp,
				DzDy: (eBelow - e0) / mpp,
			})
		}
	}
}

// RenderSlope окрашивает пиксели тайла Terrarium по диапазонам крутизны;
// пиксели положе 27° остаются прозрачными.
func RenderSlope(img image.Image, zoom, y int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	gradients(img, zoom, y, func(px, py int, g Gradient) {
		slope := g.SlopeDeg()
		for _, band := range slopeBands {
			if slope >= band.minDeg {
				out.SetNRGBA(px, py, band.color)
				return
			}
		}
	})
	return out
}

// RenderSlopeAspect окрашивает пиксели от 20° по сектору экспозиции
func RenderSlopeAspect(img image.Image, zoom, y int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	gradients(img, zoom, y, func(px, py int, g Gradient) {
		if g.SlopeDeg() < AspectThresholdDeg {
			return
		}
		out.SetNRGBA(px, py, AspectColors[geo.BucketFor(g.AspectDeg())])
	})
	return out
}
