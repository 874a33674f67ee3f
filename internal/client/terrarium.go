package client

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"route-analyzer-go/internal/terrain"

	"github.com/sirupsen/logrus"
)

// DefaultTerrariumURL публичный бакет тайлов Terrarium
const DefaultTerrariumURL = "https://s3.amazonaws.com/elevation-tiles-prod/terrarium"

// ErrTileNotFound возвращается, если у сервера нет тайла по адресу
var ErrTileNotFound = errors.New("terrarium tile not found")

type tileKey struct {
	z, x, y int
}

// TerrariumClient загружает тайлы высот Terrarium по HTTP
type TerrariumClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger

	mu    sync.Mutex
	tiles map[tileKey]image.Image
}

// NewTerrariumClient создает новый клиент сервера тайлов Terrarium
func NewTerrariumClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *TerrariumClient {
	return &TerrariumClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tiles:  make(map[tileKey]image.Image),
	}
}

// FetchTile загружает и декодирует тайл z/x/y. Декодированные тайлы кэшируются в памяти.
func (c *TerrariumClient) FetchTile(ctx context.Context, z, x, y int) (image.Image, error) {
	if z < 0 || z > terrain.MaxZoom {
		return nil, fmt.Errorf("zoom %d outside [0, %d]", z, terrain.MaxZoom)
	}
	limit := 1 << uint(z)
	if x < 0 || x >= limit || y < 0 || y >= limit {
		return nil, fmt.Errorf("tile %d/%d/%d outside the grid: %w", z, x, y, ErrTileNotFound)
	}

	key := tileKey{z, x, y}
	c.mu.Lock()
	img, ok := c.tiles[key]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	url := fmt.Sprintf("%s/%d/%d/%d.png", c.baseURL, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile request: %w", err)
	}

	c.logger.Debugf("Загрузка тайла terrarium %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile %d/%d/%d: %w", z, x, y, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("tile %d/%d/%d: %w", z, x, y, ErrTileNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tile server returned status %d: %s", resp.StatusCode, string(body))
	}

	img, err = png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile %d/%d/%d: %w", z, x, y, err)
	}

	c.mu.Lock()
	c.tiles[key] = img
	c.mu.Unlock()

	return img, nil
}

// ElevationAt возвращает высоту точки по тайлу заданного зума
func (c *TerrariumClient) ElevationAt(ctx context.Context, lat, lon float64, zoom int) (float64, error) {
	x, y, px, py := terrain.LatLonToPixel(lat, lon, zoom)
	img, err := c.FetchTile(ctx, zoom, x, y)
	if err != nil {
		return 0, err
	}
	return terrain.ElevationAt(img, px, py), nil
}

// CheckHealth загружает единственный тайл зума 0
func (c *TerrariumClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Проверка сервера тайлов terrarium")
	if _, err := c.FetchTile(ctx, 0, 0, 0); err != nil {
		return fmt.Errorf("terrarium unavailable: %w", err)
	}
	return nil
}
