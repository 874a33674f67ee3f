package geo

import (
	"math"
	"testing"

	"route-analyzer-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, policy Policy) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(policy)
	require.NoError(t, err)
	return a
}

func breakdownSum(b models.AspectBreakdown) float64 {
	sum := 0.0
	for _, v := range b {
		sum += v
	}
	return sum
}

// pre-summit steep descent facing N, climb to the summit, short steep descent facing S
var summitTrack = []models.TrackPoint{
	{Lat: 47.00, Lon: 11.00, Ele: 2000},
	{Lat: 47.02, Lon: 11.00, Ele: 400},
	{Lat: 47.02, Lon: 11.02, Ele: 2500},
	{Lat: 47.01, Lon: 11.02, Ele: 1700},
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	for _, points := range [][]models.TrackPoint{
		nil,
		{},
		{{Lat: 47, Lon: 11, Ele: 1000}},
	} {
		summary, err := a.Analyze(points)
		assert.ErrorIs(t, err, ErrInsufficientData)
		assert.Nil(t, summary)
	}
}

func TestAnalyzeRoundTrip(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	summary, err := a.Analyze([]models.TrackPoint{
		{Lat: 47.0, Lon: 11.0, Ele: 1000},
		{Lat: 47.01, Lon: 11.0, Ele: 1200},
		{Lat: 47.0, Lon: 11.0, Ele: 1000},
	})
	require.NoError(t, err)

	assert.Equal(t, summary.Ascent, summary.Descent)
	assert.Equal(t, 200, summary.Ascent)
	assert.InDelta(t, 2.22, summary.Distance, 1e-9)
	assert.Equal(t, 1000, summary.ElevationMin)
	assert.Equal(t, 1200, summary.ElevationMax)
	assert.Equal(t, 10, summary.MaxSlope)
	assert.InDelta(t, 10.2, summary.AvgSlope, 0.05)

	// nothing reaches 20°
	assert.Len(t, summary.AspectBreakdown, 8)
	for bucket, pct := range summary.AspectBreakdown {
		assert.Equal(t, 0.0, pct, "bucket %s", bucket)
	}
	assert.Equal(t, models.AspectN, summary.PrimaryAspect)
}

func TestAnalyzeMonotonicAscent(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	// due north, +60 m every ~111 m: about 28°
	points := make([]models.TrackPoint, 10)
	for i := range points {
		points[i] = models.TrackPoint{
			Lat: 47.0 + float64(i)*0.001,
			Lon: 11.0,
			Ele: 1000 + float64(i)*60,
		}
	}

	summary, err := a.Analyze(points)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Descent)
	assert.Equal(t, 540, summary.Ascent)
	assert.Equal(t, Opposite(BucketFor(0)), summary.PrimaryAspect)
	assert.Equal(t, models.AspectS, summary.PrimaryAspect)
	assert.Equal(t, 100.0, summary.AspectBreakdown[models.AspectS])
	assert.Equal(t, 28, summary.MaxSlope)
}

func TestAnalyzeBreakdownSumsToHundred(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	summary, err := a.Analyze(summitTrack)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, breakdownSum(summary.AspectBreakdown), 0.5)
	assert.Greater(t, summary.AspectBreakdown[models.AspectN], 0.0)
	assert.Greater(t, summary.AspectBreakdown[models.AspectW], 0.0)
	assert.Greater(t, summary.AspectBreakdown[models.AspectS], 0.0)
	assert.Equal(t, 0.0, summary.AspectBreakdown[models.AspectE])
}

func TestAnalyzePrimaryAspectPolicies(t *testing.T) {
	t.Run("whole route picks the longest steep descent", func(t *testing.T) {
		summary, err := newTestAnalyzer(t, DefaultPolicy()).Analyze(summitTrack)
		require.NoError(t, err)
		assert.Equal(t, models.AspectN, summary.PrimaryAspect)
	})

	t.Run("summit scope ignores descents before the high point", func(t *testing.T) {
		summary, err := newTestAnalyzer(t, SummitPolicy()).Analyze(summitTrack)
		require.NoError(t, err)
		assert.Equal(t, models.AspectS, summary.PrimaryAspect)
	})

	t.Run("summit scope falls back to the steep breakdown", func(t *testing.T) {
		policy := SummitPolicy()
		policy.PrimaryThresholdDeg = 60

		summary, err := newTestAnalyzer(t, policy).Analyze(summitTrack)
		require.NoError(t, err)
		// no descent is 60° steep; N carries the most steep distance overall
		assert.Equal(t, models.AspectN, summary.PrimaryAspect)
	})

	t.Run("policies share the breakdown", func(t *testing.T) {
		route, err := newTestAnalyzer(t, DefaultPolicy()).Analyze(summitTrack)
		require.NoError(t, err)
		summit, err := newTestAnalyzer(t, SummitPolicy()).Analyze(summitTrack)
		require.NoError(t, err)
		assert.Equal(t, route.AspectBreakdown, summit.AspectBreakdown)
	})
}

func TestAnalyzeOrderSensitive(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	pa := models.TrackPoint{Lat: 47.0, Lon: 11.0, Ele: 1000}
	pb := models.TrackPoint{Lat: 47.01, Lon: 11.0, Ele: 1400}
	pc := models.TrackPoint{Lat: 47.01, Lon: 11.01, Ele: 1000}

	forward, err := a.Analyze([]models.TrackPoint{pa, pb, pc})
	require.NoError(t, err)
	shuffled, err := a.Analyze([]models.TrackPoint{pb, pa, pc})
	require.NoError(t, err)

	assert.NotEqual(t, forward, shuffled)
	assert.Equal(t, 400, forward.Ascent)
	assert.Equal(t, 0, shuffled.Ascent)
}

func TestAnalyzeDegenerateSegment(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	summary, err := a.Analyze([]models.TrackPoint{
		{Lat: 47.0, Lon: 11.0, Ele: 1000},
		{Lat: 47.0, Lon: 11.0, Ele: 1100},
		{Lat: 47.0, Lon: 11.0, Ele: 1050},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.Distance)
	assert.Equal(t, 100, summary.Ascent)
	assert.Equal(t, 50, summary.Descent)
	assert.Equal(t, 0, summary.MaxSlope)
	assert.Equal(t, 0.0, summary.AvgSlope)
	assert.False(t, math.IsNaN(summary.AvgSlope))
	assert.Equal(t, 0.0, breakdownSum(summary.AspectBreakdown))
	assert.Equal(t, models.AspectN, summary.PrimaryAspect)
}

func TestAnalyzeAscentDescentNonNegative(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	flat := []models.TrackPoint{
		{Lat: 47.0, Lon: 11.0, Ele: 800},
		{Lat: 47.001, Lon: 11.001, Ele: 800},
		{Lat: 47.002, Lon: 11.0, Ele: 800},
	}
	summary, err := a.Analyze(flat)
	require.NoError(t, err)
	assert.Zero(t, summary.Ascent)
	assert.Zero(t, summary.Descent)
	assert.Zero(t, summary.MaxSlope)

	summary, err = a.Analyze(summitTrack)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Ascent, 0)
	assert.GreaterOrEqual(t, summary.Descent, 0)
	assert.Equal(t, 2100, summary.Ascent)
	assert.Equal(t, 2400, summary.Descent)
}

func TestSegments(t *testing.T) {
	a := newTestAnalyzer(t, DefaultPolicy())

	segments, err := a.Segments(summitTrack)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, models.AspectN, segments[0].Aspect)
	assert.Equal(t, models.AspectW, segments[1].Aspect) // climbing east
	assert.Equal(t, models.AspectS, segments[2].Aspect)
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		assert.False(t, seg.Degenerate)
	}

	_, err = a.Segments(summitTrack[:1])
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLargestTieBreak(t *testing.T) {
	var acc aspectDistances
	acc[2] = 150 // E
	acc[6] = 150 // W
	acc[0] = 150 // N

	bucket, ok := acc.largest()
	assert.True(t, ok)
	assert.Equal(t, models.AspectN, bucket)

	var empty aspectDistances
	bucket, ok = empty.largest()
	assert.False(t, ok)
	assert.Equal(t, models.AspectN, bucket)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.NoError(t, SummitPolicy().Validate())

	bad := DefaultPolicy()
	bad.SteepThresholdDeg = -1
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.PrimaryThresholdDeg = math.NaN()
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.Scope = "valley"
	assert.Error(t, bad.Validate())

	_, err := NewAnalyzer(bad)
	assert.Error(t, err)
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, SummitPolicy(), PolicyFor(ScopeAfterSummit))
	assert.Equal(t, DefaultPolicy(), PolicyFor(ScopeWholeRoute))
	assert.Equal(t, DefaultPolicy(), PolicyFor(""))
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeWholeRoute, scope)

	scope, err = ParseScope("summit")
	require.NoError(t, err)
	assert.Equal(t, ScopeAfterSummit, scope)

	_, err = ParseScope("everywhere")
	assert.Error(t, err)
}
