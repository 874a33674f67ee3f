package geo

import (
	"errors"
	"fmt"
	"math"

	"route-analyzer-go/pkg/models"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData возвращается, если в треке меньше двух точек
var ErrInsufficientData = errors.New("insufficient track points: at least 2 required")

// Scope определяет, какие сегменты голосуют за основную экспозицию
type Scope string

const (
	// ScopeWholeRoute учитывает все крутые сегменты спуска
	ScopeWholeRoute Scope = "route"
	// ScopeAfterSummit учитывает крутые сегменты спуска начиная с высшей точки
	ScopeAfterSummit Scope = "summit"
)

// ParseScope преобразует значение конфигурации в Scope
func ParseScope(value string) (Scope, error) {
	switch Scope(value) {
	case ScopeWholeRoute, ScopeAfterSummit:
		return Scope(value), nil
	case "":
		return ScopeWholeRoute, nil
	}
	return "", fmt.Errorf("unknown primary aspect scope %q", value)
}

// Policy содержит пороги, по которым сегмент считается крутым
type Policy struct {
	SteepThresholdDeg   float64 `json:"steepThresholdDeg"`   // минимальный уклон для распределения экспозиций
	PrimaryThresholdDeg float64 `json:"primaryThresholdDeg"` // минимальный уклон для голосования за основную экспозицию
	Scope               Scope   `json:"scope"`
}

// DefaultPolicy учитывает весь маршрут с порогом 20° и для распределения,
// и для основной экспозиции.
func DefaultPolicy() Policy {
	return Policy{
		SteepThresholdDeg:   20,
		PrimaryThresholdDeg: 20,
		Scope:               ScopeWholeRoute,
	}
}

// SummitPolicy допускает к голосованию за основную экспозицию только сегменты
// после вершины с уклоном не меньше 30°.
func SummitPolicy() Policy {
	return Policy{
		SteepThresholdDeg:   20,
		PrimaryThresholdDeg: 30,
		Scope:               ScopeAfterSummit,
	}
}

// PolicyFor возвращает пресет для области: SummitPolicy для
// ScopeAfterSummit, иначе DefaultPolicy.
func PolicyFor(scope Scope) Policy {
	if scope == ScopeAfterSummit {
		return SummitPolicy()
	}
	return DefaultPolicy()
}

// Validate проверяет, что пороги являются допустимыми углами, а область известна
func (p Policy) Validate() error {
	if math.IsNaN(p.SteepThresholdDeg) || p.SteepThresholdDeg < 0 || p.SteepThresholdDeg > 90 {
		return fmt.Errorf("steep threshold must be within [0, 90], got %v", p.SteepThresholdDeg)
	}
	if math.IsNaN(p.PrimaryThresholdDeg) || p.PrimaryThresholdDeg < 0 || p.PrimaryThresholdDeg > 90 {
		return fmt.Errorf("primary threshold must be within [0, 90], got %v", p.PrimaryThresholdDeg)
	}
	switch p.Scope {
	case ScopeWholeRoute, ScopeAfterSummit:
		return nil
	}
	return fmt.Errorf("unknown primary aspect scope %q", p.Scope)
}

// Segment описывает отрезок между двумя соседними точками трека
type Segment struct {
	Index           int                 `json:"index"`
	DistanceMeters  float64             `json:"distanceMeters"`
	ElevationChange float64             `json:"elevationChange"`
	SlopeDeg        float64             `json:"slopeDeg"`
	AspectDeg       float64             `json:"aspectDeg"` // азимут после коррекции подъема
	Aspect          models.AspectBucket `json:"aspect"`
	Degenerate      bool                `json:"degenerate,omitempty"` // нулевое горизонтальное расстояние
}

// Analyzer сворачивает трек в RouteSummary. Изменяемого состояния нет,
// безопасен для конкурентного использования.
type Analyzer struct {
	calc   *Calculator
	policy Policy
}

// NewAnalyzer создает анализатор для заданной политики
func NewAnalyzer(policy Policy) (*Analyzer, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis policy: %w", err)
	}
	return &Analyzer{
		calc:   NewCalculator(),
		policy: policy,
	}, nil
}

// Policy возвращает политику анализатора
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// segment вычисляет атрибуты отрезка points[i] -> points[i+1]
func (a *Analyzer) segment(points []models.TrackPoint, i int) Segment {
	p1, p2 := points[i], points[i+1]

	seg := Segment{
		Index:           i,
		DistanceMeters:  a.calc.DistanceMeters(p1, p2),
		ElevationChange: p2.Ele - p1.Ele,
	}
	if seg.DistanceMeters == 0 {
		seg.Degenerate = true
		return seg
	}

	seg.SlopeDeg = a.calc.SlopeDegrees(seg.ElevationChange, seg.DistanceMeters)

	// На подъеме склон обращен против направления движения
	aspect := a.calc.Bearing(p1, p2)
	if seg.ElevationChange > 0 {
		aspect = normalizeDegrees(aspect + 180)
	}
	seg.AspectDeg = aspect
	seg.Aspect = BucketFor(aspect)

	return seg
}

// Segments возвращает разбивку трека по сегментам
func (a *Analyzer) Segments(points []models.TrackPoint) ([]Segment, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}
	segments := make([]Segment, len(points)-1)
	for i := range segments {
		segments[i] = a.segment(points, i)
	}
	return segments, nil
}

// Analyze считает дистанцию, перепады высот, уклоны и экспозиции трека
func (a *Analyzer) Analyze(points []models.TrackPoint) (*models.RouteSummary, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}

	summitIndex := 0
	for i, p := range points {
		if p.Ele > points[summitIndex].Ele {
			summitIndex = i
		}
	}

	var (
		totalDistance float64
		ascent        float64
		descent       float64
		maxSlope      float64
		steep         aspectDistances
		primary       aspectDistances
	)
	elevationMin := math.Inf(1)
	elevationMax := math.Inf(-1)
	slopes := make([]float64, 0, len(points)-1)
	weights := make([]float64, 0, len(points)-1)

	for i := 0; i < len(points)-1; i++ {
		seg := a.segment(points, i)

		totalDistance += seg.DistanceMeters
		if seg.ElevationChange > 0 {
			ascent += seg.ElevationChange
		} else if seg.ElevationChange < 0 {
			descent += -seg.ElevationChange
		}

		elevationMin = math.Min(elevationMin, math.Min(points[i].Ele, points[i+1].Ele))
		elevationMax = math.Max(elevationMax, math.Max(points[i].Ele, points[i+1].Ele))

		if seg.Degenerate {
			continue
		}

		maxSlope = math.Max(maxSlope, seg.SlopeDeg)
		slopes = append(slopes, seg.SlopeDeg)
		weights = append(weights, seg.DistanceMeters)

		idx := bucketIndex(seg.AspectDeg)
		if seg.SlopeDeg >= a.policy.SteepThresholdDeg {
			steep[idx] += seg.DistanceMeters
		}
		if seg.ElevationChange < 0 && seg.SlopeDeg >= a.policy.PrimaryThresholdDeg && a.inPrimaryScope(i, summitIndex) {
			primary[idx] += seg.DistanceMeters
		}
	}

	avgSlope := 0.0
	if totalDistance > 0 {
		avgSlope = stat.Mean(slopes, weights)
	}

	return &models.RouteSummary{
		Distance:        scalar.Round(totalDistance/1000, 2),
		Ascent:          int(math.Round(ascent)),
		Descent:         int(math.Round(descent)),
		ElevationMin:    int(math.Round(elevationMin)),
		ElevationMax:    int(math.Round(elevationMax)),
		MaxSlope:        int(math.Round(maxSlope)),
		AvgSlope:        scalar.Round(avgSlope, 1),
		PrimaryAspect:   primaryAspect(primary, steep),
		AspectBreakdown: breakdown(steep),
	}, nil
}

func (a *Analyzer) inPrimaryScope(segmentIndex, summitIndex int) bool {
	if a.policy.Scope == ScopeAfterSummit {
		return segmentIndex >= summitIndex
	}
	return true
}

// primaryAspect выбирает преобладающую экспозицию спуска. Если голосов нет,
// берется распределение крутых участков, в крайнем случае N.
func primaryAspect(descending, steep aspectDistances) models.AspectBucket {
	if bucket, ok := descending.largest(); ok {
		return bucket
	}
	if bucket, ok := steep.largest(); ok {
		return bucket
	}
	return models.AspectN
}

// breakdown переводит крутую дистанцию по секторам в проценты
func breakdown(steep aspectDistances) models.AspectBreakdown {
	result := models.NewAspectBreakdown()
	total := steep.total()
	if total <= 0 {
		return result
	}
	for i, d := range steep {
		result[models.AspectBuckets[i]] = scalar.Round(d/total*100, 1)
	}
	return result
}
