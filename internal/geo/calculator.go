package geo

import (
	"math"

	"route-analyzer-go/pkg/models"
)

// EarthRadiusMeters средний радиус Земли для формулы гаверсинусов
const EarthRadiusMeters = 6371000.0

// Calculator для географических вычислений между точками трека
type Calculator struct{}

// NewCalculator создает новый калькулятор
func NewCalculator() *Calculator {
	return &Calculator{}
}

// DistanceMeters вычисляет расстояние по большому кругу между двумя точками
// в метрах по формуле гаверсинусов
func (c *Calculator) DistanceMeters(point1, point2 models.TrackPoint) float64 {
	lat1Rad := toRadians(point1.Lat)
	lat2Rad := toRadians(point2.Lat)

	deltaLat := toRadians(point2.Lat - point1.Lat)
	deltaLon := toRadians(point2.Lon - point1.Lon)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * chord
}

// Bearing возвращает начальный азимут от point1 к point2 в [0, 360)
func (c *Calculator) Bearing(point1, point2 models.TrackPoint) float64 {
	lat1Rad := toRadians(point1.Lat)
	lat2Rad := toRadians(point2.Lat)
	deltaLon := toRadians(point2.Lon - point1.Lon)

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return normalizeDegrees(toDegrees(math.Atan2(y, x)))
}

// SlopeDegrees возвращает модуль угла уклона для перепада высоты на
// горизонтальном расстоянии. При нулевом или отрицательном расстоянии 0.
func (c *Calculator) SlopeDegrees(elevationChange, horizontalMeters float64) float64 {
	if horizontalMeters <= 0 {
		return 0
	}
	return math.Abs(toDegrees(math.Atan(elevationChange / horizontalMeters)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeDegrees приводит угол к [0, 360)
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 в float64 округляется до 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}
