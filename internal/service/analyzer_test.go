package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ridgeGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <metadata><name>Fellhorn Ridge</name><desc>short ridge</desc></metadata>
  <trk><trkseg>
    <trkpt lat="47.000" lon="11.0"><ele>1000</ele></trkpt>
    <trkpt lat="47.001" lon="11.0"><ele>1100</ele></trkpt>
    <trkpt lat="47.002" lon="11.0"><ele>1050</ele></trkpt>
  </trkseg></trk>
</gpx>`

const ridgeNoElevationGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk><name>Nebelhorn</name><trkseg>
    <trkpt lat="47.000" lon="11.0"><ele>1000</ele></trkpt>
    <trkpt lat="47.001" lon="11.0"></trkpt>
    <trkpt lat="47.002" lon="11.0"></trkpt>
  </trkseg></trk>
</gpx>`

// fakeTerrain serves elevations for the ridge fixture
type fakeTerrain struct {
	calls     int
	failAfter float64 // latitudes above this fail
	healthErr error
}

func (f *fakeTerrain) ElevationAt(ctx context.Context, lat, lon float64, zoom int) (float64, error) {
	f.calls++
	if f.failAfter > 0 && lat > f.failAfter {
		return 0, errors.New("tile unavailable")
	}
	if lat > 47.0015 {
		return 1050, nil
	}
	return 1100, nil
}

func (f *fakeTerrain) CheckHealth(ctx context.Context) error {
	return f.healthErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAnalyzerService(t *testing.T, terrain TerrainSource, backfill bool) *AnalyzerService {
	t.Helper()
	analyzer, err := geo.NewAnalyzer(geo.DefaultPolicy())
	require.NoError(t, err)
	return NewAnalyzerService(analyzer, terrain, backfill, 12, testLogger())
}

func TestAnalyzeGPX(t *testing.T) {
	s := newTestAnalyzerService(t, nil, false)

	meta, err := s.AnalyzeGPX(context.Background(), "gpx/fellhorn-ridge.gpx", strings.NewReader(ridgeGPX))
	require.NoError(t, err)

	assert.Equal(t, "fellhorn-ridge", meta.ID)
	assert.Equal(t, "fellhorn-ridge.gpx", meta.Filename)
	assert.Equal(t, "Fellhorn Ridge", meta.Name)
	assert.Equal(t, "short ridge", meta.Description)
	assert.Equal(t, "Allgäu Alps West", meta.Region)
	assert.Equal(t, 3, meta.PointCount)
	assert.Equal(t, 100, meta.Ascent)
	assert.Equal(t, 50, meta.Descent)
	assert.Equal(t, 42, meta.MaxSlope)
	assert.Equal(t, models.AspectN, meta.PrimaryAspect)
	assert.InDelta(t, 50.0, meta.AspectBreakdown[models.AspectS], 1e-9)
}

func TestAnalyzeGPXErrors(t *testing.T) {
	s := newTestAnalyzerService(t, nil, false)

	t.Run("not xml", func(t *testing.T) {
		_, err := s.AnalyzeGPX(context.Background(), "bad.gpx", strings.NewReader("nope"))
		assert.ErrorIs(t, err, ErrInvalidGPX)
	})

	t.Run("single point", func(t *testing.T) {
		doc := `<gpx><trk><trkseg><trkpt lat="47" lon="11"><ele>1</ele></trkpt></trkseg></trk></gpx>`
		_, err := s.AnalyzeGPX(context.Background(), "one.gpx", strings.NewReader(doc))
		assert.ErrorIs(t, err, geo.ErrInsufficientData)
	})
}

func TestAnalyzeGPXBackfill(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		terrain := &fakeTerrain{}
		s := newTestAnalyzerService(t, terrain, true)

		meta, err := s.AnalyzeGPX(context.Background(), "nebelhorn.gpx", strings.NewReader(ridgeNoElevationGPX))
		require.NoError(t, err)
		assert.Equal(t, 2, terrain.calls)
		assert.Equal(t, "Allgäu Alps Central", meta.Region)
		assert.Equal(t, 100, meta.Ascent)
		assert.Equal(t, 50, meta.Descent)
	})

	t.Run("disabled", func(t *testing.T) {
		terrain := &fakeTerrain{}
		s := newTestAnalyzerService(t, terrain, false)

		meta, err := s.AnalyzeGPX(context.Background(), "nebelhorn.gpx", strings.NewReader(ridgeNoElevationGPX))
		require.NoError(t, err)
		assert.Equal(t, 0, terrain.calls)
		assert.Equal(t, 0, meta.Ascent)
		assert.Equal(t, 1000, meta.Descent)
	})

	t.Run("failed lookups keep zero", func(t *testing.T) {
		terrain := &fakeTerrain{failAfter: 47.0015}
		s := newTestAnalyzerService(t, terrain, true)

		meta, err := s.AnalyzeGPX(context.Background(), "nebelhorn.gpx", strings.NewReader(ridgeNoElevationGPX))
		require.NoError(t, err)
		assert.Equal(t, 2, terrain.calls)
		assert.Equal(t, 100, meta.Ascent)
		assert.Equal(t, 1100, meta.Descent)
	})
}

func TestAnalyzePoints(t *testing.T) {
	s := newTestAnalyzerService(t, nil, false)
	points := []models.TrackPoint{
		{Lat: 47.000, Lon: 11.0, Ele: 1000},
		{Lat: 47.001, Lon: 11.0, Ele: 1100},
		{Lat: 47.002, Lon: 11.0, Ele: 1050},
	}

	t.Run("configured policy", func(t *testing.T) {
		resp, err := s.AnalyzePoints(context.Background(), points, nil, false)
		require.NoError(t, err)
		assert.Equal(t, geo.DefaultPolicy(), resp.Policy)
		assert.Equal(t, models.AspectN, resp.PrimaryAspect)
		assert.Empty(t, resp.Segments)
	})

	t.Run("override with detail", func(t *testing.T) {
		steep := 45.0
		resp, err := s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{SteepThresholdDeg: &steep}, true)
		require.NoError(t, err)
		assert.Equal(t, 45.0, resp.Policy.SteepThresholdDeg)
		assert.Equal(t, 20.0, resp.Policy.PrimaryThresholdDeg)
		assert.Len(t, resp.Segments, 2)
		for _, bucket := range models.AspectBuckets {
			assert.Zero(t, resp.AspectBreakdown[bucket])
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{Scope: "valley"}, false)
		assert.ErrorIs(t, err, ErrInvalidPolicy)

		bad := 95.0
		_, err = s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{PrimaryThresholdDeg: &bad}, false)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := s.AnalyzePoints(context.Background(), points[:1], nil, false)
		assert.ErrorIs(t, err, geo.ErrInsufficientData)
	})
}

func TestAnalyzePointsScopeOverride(t *testing.T) {
	s := newTestAnalyzerService(t, nil, false)
	// climb north to the summit, then a 24° descent east
	points := []models.TrackPoint{
		{Lat: 47.000, Lon: 11.000, Ele: 1000},
		{Lat: 47.001, Lon: 11.000, Ele: 1100},
		{Lat: 47.001, Lon: 11.001, Ele: 1066},
	}

	t.Run("summit scope uses the summit preset", func(t *testing.T) {
		resp, err := s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{Scope: "summit"}, false)
		require.NoError(t, err)
		assert.Equal(t, geo.SummitPolicy(), resp.Policy)
		assert.Equal(t, models.AspectS, resp.PrimaryAspect)
	})

	t.Run("explicit threshold wins over the preset", func(t *testing.T) {
		primary := 20.0
		resp, err := s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{Scope: "summit", PrimaryThresholdDeg: &primary}, false)
		require.NoError(t, err)
		assert.Equal(t, 20.0, resp.Policy.PrimaryThresholdDeg)
		assert.Equal(t, geo.ScopeAfterSummit, resp.Policy.Scope)
		assert.Equal(t, models.AspectE, resp.PrimaryAspect)
	})

	t.Run("same scope keeps the configured policy", func(t *testing.T) {
		resp, err := s.AnalyzePoints(context.Background(), points, &models.PolicyRequest{Scope: "route"}, false)
		require.NoError(t, err)
		assert.Equal(t, geo.DefaultPolicy(), resp.Policy)
		assert.Equal(t, models.AspectE, resp.PrimaryAspect)
	})
}

func TestAnalyzePointsCancelled(t *testing.T) {
	s := newTestAnalyzerService(t, nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := []models.TrackPoint{{Lat: 47, Lon: 11, Ele: 1000}, {Lat: 47.001, Lon: 11, Ele: 1100}}
	_, err := s.AnalyzePoints(ctx, points, nil, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzerCheckHealth(t *testing.T) {
	assert.Equal(t, "disabled", newTestAnalyzerService(t, nil, false).CheckHealth(context.Background()))
	assert.Equal(t, "ok", newTestAnalyzerService(t, &fakeTerrain{}, false).CheckHealth(context.Background()))
	assert.Equal(t, "error", newTestAnalyzerService(t, &fakeTerrain{healthErr: errors.New("down")}, false).CheckHealth(context.Background()))
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Kleinwalsertal Traverse", "Allgäu Alps West"},
		{"FELLHORN north face", "Allgäu Alps West"},
		{"Oberstdorf loop", "Allgäu Alps Central"},
		{"Nebelhorn Couloir", "Allgäu Alps Central"},
		{"Hochgrat", "Allgäu Alps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectRegion(tt.name))
		})
	}
}
