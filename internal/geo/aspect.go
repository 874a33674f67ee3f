package geo

import "route-analyzer-go/pkg/models"

type aspectRange struct {
	lower, upper float64 // [lower, upper)
	index        int     // позиция в models.AspectBuckets
}

// aspectTable покрывает [0, 360) ровно один раз. N разбит границей 0°.
var aspectTable = []aspectRange{
	{0, 22.5, 0},
	{22.5, 67.5, 1},
	{67.5, 112.5, 2},
	{112.5, 157.5, 3},
	{157.5, 202.5, 4},
	{202.5, 247.5, 5},
	{247.5, 292.5, 6},
	{292.5, 337.5, 7},
	{337.5, 360, 0},
}

// BucketFor относит азимут к одному из восьми секторов экспозиции.
// Азимуты вне [0, 360) сначала приводятся к диапазону.
func BucketFor(bearing float64) models.AspectBucket {
	return models.AspectBuckets[bucketIndex(bearing)]
}

func bucketIndex(bearing float64) int {
	b := normalizeDegrees(bearing)
	for _, r := range aspectTable {
		if b >= r.lower && b < r.upper {
			return r.index
		}
	}
	// NaN
	return 0
}

// Opposite возвращает противоположный сектор
func Opposite(bucket models.AspectBucket) models.AspectBucket {
	for i, b := range models.AspectBuckets {
		if b == bucket {
			return models.AspectBuckets[(i+4)%len(models.AspectBuckets)]
		}
	}
	return bucket
}

// aspectDistances накапливает горизонтальную дистанцию по секторам
type aspectDistances [8]float64

func (a aspectDistances) total() float64 {
	sum := 0.0
	for _, d := range a {
		sum += d
	}
	return sum
}

// largest возвращает сектор с наибольшей дистанцией. При равенстве побеждает
// первый по порядку объявления; ok равен false, если все секторы пусты.
func (a aspectDistances) largest() (bucket models.AspectBucket, ok bool) {
	best := 0.0
	bucket = models.AspectN
	for i, d := range a {
		if d > best {
			best = d
			bucket = models.AspectBuckets[i]
			ok = true
		}
	}
	return bucket, ok
}
