package models

// TrackPoint одна точка записанного трека
type TrackPoint struct {
	Lat float64 `json:"lat"` // Широта в градусах
	Lon float64 `json:"lon"` // Долгота в градусах
	Ele float64 `json:"ele"` // Высота в метрах, 0 если в источнике ее нет
}

// AspectBucket один из восьми секторов экспозиции склона
type AspectBucket string

const (
	AspectN  AspectBucket = "N"
	AspectNE AspectBucket = "NE"
	AspectE  AspectBucket = "E"
	AspectSE AspectBucket = "SE"
	AspectS  AspectBucket = "S"
	AspectSW AspectBucket = "SW"
	AspectW  AspectBucket = "W"
	AspectNW AspectBucket = "NW"
)

// AspectBuckets перечисляет секторы в порядке объявления. Равенство между
// секторами разрешается в этом порядке.
var AspectBuckets = [8]AspectBucket{
	AspectN, AspectNE, AspectE, AspectSE, AspectS, AspectSW, AspectW, AspectNW,
}

// Valid сообщает, является ли b одним из восьми известных секторов
func (b AspectBucket) Valid() bool {
	for _, known := range AspectBuckets {
		if b == known {
			return true
		}
	}
	return false
}

// AspectBreakdown доля крутой дистанции по каждому сектору, в процентах
type AspectBreakdown map[AspectBucket]float64

// NewAspectBreakdown возвращает распределение с нулями во всех восьми секторах
func NewAspectBreakdown() AspectBreakdown {
	b := make(AspectBreakdown, len(AspectBuckets))
	for _, bucket := range AspectBuckets {
		b[bucket] = 0
	}
	return b
}

// RouteSummary результат анализа одного трека
type RouteSummary struct {
	Distance        float64         `json:"distance"`        // Горизонтальная дистанция в км, 2 знака
	Ascent          int             `json:"ascent"`          // Суммарный набор в метрах
	Descent         int             `json:"descent"`         // Суммарный сброс в метрах
	ElevationMin    int             `json:"elevationMin"`    // Минимальная высота в метрах
	ElevationMax    int             `json:"elevationMax"`    // Максимальная высота в метрах
	MaxSlope        int             `json:"maxSlope"`        // Самый крутой сегмент в градусах
	AvgSlope        float64         `json:"avgSlope"`        // Средний уклон, взвешенный по дистанции, 1 знак
	PrimaryAspect   AspectBucket    `json:"primaryAspect"`   // Основная экспозиция спуска
	AspectBreakdown AspectBreakdown `json:"aspectBreakdown"` // Доля крутой дистанции по секторам
}

// RouteMetadata сводка вместе с данными исходного трека
type RouteMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filename    string `json:"filename"`
	Region      string `json:"region"`
	PointCount  int    `json:"pointCount"`
	RouteSummary
}

// RoutesMetadata документ, записываемый пакетным анализатором
type RoutesMetadata struct {
	Routes []RouteMetadata `json:"routes"`
}

// PolicyRequest переопределяет политику анализа для одного запроса
type PolicyRequest struct {
	SteepThresholdDeg   *float64 `json:"steepThresholdDeg,omitempty"`
	PrimaryThresholdDeg *float64 `json:"primaryThresholdDeg,omitempty"`
	Scope               string   `json:"scope,omitempty"` // "route" или "summit"
}

// AnalyzeRequest тело запроса анализа без сохранения
type AnalyzeRequest struct {
	Points []TrackPoint   `json:"points" binding:"required"`
	Policy *PolicyRequest `json:"policy,omitempty"`
}

// HealthResponse состояние сервиса и его зависимостей
type HealthResponse struct {
	Status    string `json:"status"`    // healthy/unhealthy
	Database  string `json:"database"`  // ok/error
	Terrarium string `json:"terrarium"` // ok/error/disabled
	Version   string `json:"version"`
}
