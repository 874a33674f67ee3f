package geo

import (
	"math"
	"testing"

	"route-analyzer-go/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	calc := NewCalculator()

	t.Run("identical points are zero apart", func(t *testing.T) {
		p := models.TrackPoint{Lat: 47.3, Lon: 10.2, Ele: 1500}
		assert.Equal(t, 0.0, calc.DistanceMeters(p, p))
	})

	t.Run("antipodal points are half a circumference apart", func(t *testing.T) {
		d := calc.DistanceMeters(
			models.TrackPoint{Lat: 0, Lon: 0},
			models.TrackPoint{Lat: 0, Lon: 180},
		)
		assert.InDelta(t, 20015086.8, d, 1000)
	})

	t.Run("one hundredth of a degree of latitude", func(t *testing.T) {
		d := calc.DistanceMeters(
			models.TrackPoint{Lat: 47.0, Lon: 11.0},
			models.TrackPoint{Lat: 47.01, Lon: 11.0},
		)
		assert.InDelta(t, 1111.95, d, 0.5)
	})
}

func TestBearing(t *testing.T) {
	calc := NewCalculator()
	origin := models.TrackPoint{Lat: 47.0, Lon: 11.0}

	tests := []struct {
		name string
		to   models.TrackPoint
		want float64
	}{
		{"north", models.TrackPoint{Lat: 47.01, Lon: 11.0}, 0},
		{"east", models.TrackPoint{Lat: 47.0, Lon: 11.01}, 90},
		{"south", models.TrackPoint{Lat: 46.99, Lon: 11.0}, 180},
		{"west", models.TrackPoint{Lat: 47.0, Lon: 10.99}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Bearing(origin, tt.to)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
			// east/west bearings deviate slightly from 90/270 away from the equator
			diff := math.Abs(got - tt.want)
			if diff > 180 {
				diff = 360 - diff
			}
			assert.Less(t, diff, 0.01)
		})
	}
}

func TestSlopeDegrees(t *testing.T) {
	calc := NewCalculator()

	assert.InDelta(t, 45.0, calc.SlopeDegrees(100, 100), 1e-9)
	assert.InDelta(t, 45.0, calc.SlopeDegrees(-100, 100), 1e-9)
	assert.Equal(t, 0.0, calc.SlopeDegrees(0, 100))
	assert.Equal(t, 0.0, calc.SlopeDegrees(250, 0))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		bearing float64
		want    models.AspectBucket
	}{
		{0, models.AspectN},
		{22.4, models.AspectN},
		{22.5, models.AspectNE},
		{67.5, models.AspectE},
		{112.5, models.AspectSE},
		{157.5, models.AspectS},
		{180, models.AspectS},
		{202.5, models.AspectSW},
		{247.5, models.AspectW},
		{292.4, models.AspectW},
		{292.5, models.AspectNW},
		{337.4, models.AspectNW},
		{337.5, models.AspectN},
		{359.99, models.AspectN},
		{360, models.AspectN},
		{-45, models.AspectNW},
		{450, models.AspectE},
		{math.NaN(), models.AspectN},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.bearing), "bearing %v", tt.bearing)
	}
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, models.AspectS, Opposite(models.AspectN))
	assert.Equal(t, models.AspectSW, Opposite(models.AspectNE))
	assert.Equal(t, models.AspectE, Opposite(models.AspectW))
	assert.Equal(t, models.AspectSE, Opposite(models.AspectNW))
}
