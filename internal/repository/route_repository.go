package repository

import (
	"errors"
	"fmt"
	"strings"

	"route-analyzer-go/internal/model"

	"gorm.io/gorm"
)

// ErrRouteNotFound возвращается, если маршрута с таким ID нет
var ErrRouteNotFound = errors.New("route not found")

// RouteRepository интерфейс хранилища проанализированных маршрутов
type RouteRepository interface {
	Create(route *model.Route) error
	GetByID(id string) (*model.Route, error)
	List(filter RouteFilter) ([]*model.Route, int64, error)
	Delete(id string) error
}

// RouteFilter сужает список маршрутов. Нулевые границы не ограничивают.
type RouteFilter struct {
	Search string
	Region string

	MinDistanceKm float64
	MaxDistanceKm float64
	MinAscent     int
	MaxAscent     int
	MinDescent    int
	MaxDescent    int
	MinMaxSlope   int
	MaxMaxSlope   int

	// Aspects оставляет маршруты с основной экспозицией из списка
	Aspects []string

	SortBy   string
	SortDesc bool

	Page int
	Size int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// sortColumns сопоставляет ключи сортировки с колонками
var sortColumns = map[string]string{
	"name":       "name",
	"distance":   "distance_km",
	"ascent":     "ascent",
	"descent":    "descent",
	"maxSlope":   "max_slope",
	"created_at": "created_at",
}

// Normalize подставляет значения пагинации по умолчанию и ограничивает размер страницы
func (f RouteFilter) Normalize() RouteFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = defaultPageSize
	}
	if f.Size > maxPageSize {
		f.Size = maxPageSize
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "name"
	}
	return f
}

// orderClause возвращает выражение ORDER BY для фильтра
func (f RouteFilter) orderClause() string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "name"
	}
	if f.SortDesc {
		return column + " DESC"
	}
	return column + " ASC"
}

// routeRepository реализует RouteRepository на gorm
type routeRepository struct {
	db *gorm.DB
}

// NewRouteRepository создает новый RouteRepository
func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{
		db: db,
	}
}

// Create сохраняет маршрут и доли экспозиций в одной транзакции
func (r *routeRepository) Create(route *model.Route) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	shares := route.AspectShares
	route.AspectShares = nil

	if err := tx.Create(route).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create route: %w", err)
	}

	for i := range shares {
		shares[i].ID = 0
		shares[i].RouteID = route.ID
		if err := tx.Create(&shares[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create aspect share %s: %w", shares[i].Bucket, err)
		}
	}
	route.AspectShares = shares

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID возвращает маршрут с долями экспозиций
func (r *routeRepository) GetByID(id string) (*model.Route, error) {
	var route model.Route
	err := r.db.Preload("AspectShares").Where("id = ?", id).First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("route %s: %w", id, ErrRouteNotFound)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

// List возвращает страницу маршрутов по фильтру и общее число совпадений
func (r *routeRepository) List(filter RouteFilter) ([]*model.Route, int64, error) {
	filter = filter.Normalize()

	var routes []*model.Route
	var total int64

	if err := applyFilter(r.db.Model(&model.Route{}), filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	offset := (filter.Page - 1) * filter.Size
	err := applyFilter(r.db, filter).
		Preload("AspectShares").
		Offset(offset).
		Limit(filter.Size).
		Order(filter.orderClause()).
		Find(&routes).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	return routes, total, nil
}

// applyFilter добавляет условия WHERE для заполненных полей фильтра
func applyFilter(query *gorm.DB, f RouteFilter) *gorm.DB {
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if f.Region != "" {
		query = query.Where("region = ?", f.Region)
	}

	query = between(query, "distance_km", f.MinDistanceKm, f.MaxDistanceKm)
	query = between(query, "ascent", float64(f.MinAscent), float64(f.MaxAscent))
	query = between(query, "descent", float64(f.MinDescent), float64(f.MaxDescent))
	query = between(query, "max_slope", float64(f.MinMaxSlope), float64(f.MaxMaxSlope))

	if len(f.Aspects) > 0 {
		query = query.Where("primary_aspect IN ?", f.Aspects)
	}
	return query
}

func between(query *gorm.DB, column string, min, max float64) *gorm.DB {
	if min > 0 {
		query = query.Where(column+" >= ?", min)
	}
	if max > 0 {
		query = query.Where(column+" <= ?", max)
	}
	return query
}

// Delete удаляет маршрут и его доли экспозиций
func (r *routeRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Where("route_id = ?", id).Delete(&model.AspectShare{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete aspect shares: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.Route{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete route: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("route %s: %w", id, ErrRouteNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
