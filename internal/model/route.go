package model

import (
	"time"

	"gorm.io/gorm"
)

// Route проанализированный трек, сохраненный в базе данных
type Route struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Filename    string `gorm:"type:varchar(255)" json:"filename"`
	Region      string `gorm:"type:varchar(100);index" json:"region"`
	GPXPath     string `gorm:"type:varchar(500)" json:"gpx_path"`
	PointCount  int    `gorm:"not null;default:0" json:"point_count"`

	// Сводка
	DistanceKm    float64 `gorm:"not null;default:0" json:"distance_km"`
	Ascent        int     `gorm:"not null;default:0" json:"ascent"`
	Descent       int     `gorm:"not null;default:0" json:"descent"`
	ElevationMin  int     `gorm:"not null;default:0" json:"elevation_min"`
	ElevationMax  int     `gorm:"not null;default:0" json:"elevation_max"`
	MaxSlope      int     `gorm:"not null;default:0" json:"max_slope"`
	AvgSlope      float64 `gorm:"not null;default:0" json:"avg_slope"`
	PrimaryAspect string  `gorm:"type:varchar(2);not null;index" json:"primary_aspect"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	AspectShares []AspectShare `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"aspect_shares"`
}

// AspectShare доля крутой дистанции маршрута в одном секторе экспозиции
type AspectShare struct {
	ID      uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	RouteID string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_route_bucket" json:"route_id"`
	Bucket  string  `gorm:"type:varchar(2);not null;uniqueIndex:idx_route_bucket" json:"bucket"`
	Percent float64 `gorm:"not null;default:0" json:"percent"`
}

// TableName задает имя таблицы для Route
func (Route) TableName() string {
	return "routes"
}

// TableName задает имя таблицы для AspectShare
func (AspectShare) TableName() string {
	return "aspect_shares"
}
