package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"route-analyzer-go/internal/client"
	"route-analyzer-go/internal/terrain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TileSource отдает декодированные тайлы Terrarium
type TileSource interface {
	FetchTile(ctx context.Context, z, x, y int) (image.Image, error)
}

// renderFunc превращает тайл высот в тайл оверлея
type renderFunc func(img image.Image, zoom, y int) *image.NRGBA

// TileHandler отдает тайлы оверлея уклонов по высотам Terrarium
type TileHandler struct {
	tiles  TileSource
	logger *logrus.Logger
}

// NewTileHandler создает новый TileHandler
func NewTileHandler(tiles TileSource, logger *logrus.Logger) *TileHandler {
	return &TileHandler{
		tiles:  tiles,
		logger: logger,
	}
}

// RegisterRoutes регистрирует маршруты тайлов оверлея
func (h *TileHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/tiles")
	{
		api.GET("/slope/:z/:x/:y", h.serve(terrain.RenderSlope))
		api.GET("/slope-aspect/:z/:x/:y", h.serve(terrain.RenderSlopeAspect))
	}
}

func (h *TileHandler) serve(render renderFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		z, x, y, err := tileAddress(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		img, err := h.tiles.FetchTile(c.Request.Context(), z, x, y)
		if err != nil {
			if errors.Is(err, client.ErrTileNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "tile not found"})
				return
			}
			h.logger.Errorf("Ошибка получения тайла высот %d/%d/%d: %v", z, x, y, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "elevation tile unavailable"})
			return
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, render(img, z, y)); err != nil {
			h.logger.Errorf("Ошибка кодирования тайла оверлея: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render tile"})
			return
		}

		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

// tileAddress разбирает z/x/y; y может иметь суффикс .png
func tileAddress(c *gin.Context) (z, x, y int, err error) {
	z, err = strconv.Atoi(c.Param("z"))
	if err != nil || z < 0 || z > terrain.MaxZoom {
		return 0, 0, 0, errors.New("invalid zoom")
	}
	x, err = strconv.Atoi(c.Param("x"))
	if err != nil {
		return 0, 0, 0, errors.New("invalid tile x")
	}
	y, err = strconv.Atoi(strings.TrimSuffix(c.Param("y"), ".png"))
	if err != nil {
		return 0, 0, 0, errors.New("invalid tile y")
	}
	return z, x, y, nil
}
