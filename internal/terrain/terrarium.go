// Package terrain работает с тайлами высот в кодировке Terrarium: адресация
// тайлов, декодирование высот и растры уклонов.
package terrain

import (
	"image"
	"image/color"
	"math"
)

const (
	// TileSize сторона тайла Terrarium в пикселях
	TileSize = 256
	// MaxZoom максимальный зум, публикуемый Terrarium
	MaxZoom = 15
	// EarthCircumference длина экватора в метрах
	EarthCircumference = 40075016.686
)

// DecodeElevation переводит RGB Terrarium в метры
func DecodeElevation(r, g, b uint8) float64 {
	return float64(r)*256 + float64(g) + float64(b)/256 - 32768
}

// EncodeElevation обратна DecodeElevation с округлением до 1/256 м
func EncodeElevation(meters float64) (r, g, b uint8) {
	v := math.Round((meters + 32768) * 256)
	v = math.Max(0, math.Min(v, 256*256*256-1))
	n := uint32(v)
	return uint8(n >> 16), uint8(n >> 8), uint8(n)
}

// ElevationAt читает высоту пикселя (px, py) тайла Terrarium
func ElevationAt(img image.Image, px, py int) float64 {
	c := color.NRGBAModel.Convert(img.At(img.Bounds().Min.X+px, img.Bounds().Min.Y+py)).(color.NRGBA)
	return DecodeElevation(c.R, c.G, c.B)
}

// LatLonToTile возвращает slippy-map тайл, содержащий координату
func LatLonToTile(lat, lon float64, zoom int) (x, y int) {
	fx, fy := project(lat, lon, zoom)
	return clampTile(int(math.Floor(fx)), zoom), clampTile(int(math.Floor(fy)), zoom)
}

// LatLonToPixel возвращает тайл и пиксель внутри него для координаты
func LatLonToPixel(lat, lon float64, zoom int) (x, y, px, py int) {
	fx, fy := project(lat, lon, zoom)
	x = clampTile(int(math.Floor(fx)), zoom)
	y = clampTile(int(math.Floor(fy)), zoom)
	px = clampPixel(int(math.Floor((fx - float64(x)) * TileSize)))
	py = clampPixel(int(math.Floor((fy - float64(y)) * TileSize)))
	return x, y, px, py
}

// MetersPerPixel оценивает разрешение тайла на местности по широте
// его центральной строки.
func MetersPerPixel(zoom, y int) float64 {
	n := math.Exp2(float64(zoom))
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*(float64(y)+0.5)/n)))
	return EarthCircumference * math.Cos(latRad) / n / TileSize
}

// project переводит координату в дробные единицы тайлов на зуме
func project(lat, lon float64, zoom int) (float64, float64) {
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180
	fx := (lon + 180) / 360 * n
	fy := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return fx, fy
}

func clampTile(v, zoom int) int {
	limit := 1<<uint(zoom) - 1
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func clampPixel(v int) int {
	if v < 0 {
		return 0
	}
	if v >= TileSize {
		return TileSize - 1
	}
	return v
}
