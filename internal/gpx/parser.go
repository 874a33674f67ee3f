package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"route-analyzer-go/pkg/models"
)

var (
	// ErrNoTrackPoints возвращается, если в документе нет ни точек трека, ни точек маршрута
	ErrNoTrackPoints = errors.New("gpx contains no track points")
	// ErrInvalidPoint возвращается для точек с негодными координатами
	ErrInvalidPoint = errors.New("invalid gpx point")
)

// Track разобранное содержимое GPX документа
type Track struct {
	Name             string
	Description      string
	Points           []models.TrackPoint
	MissingElevation []int // индексы точек без <ele>
}

type document struct {
	XMLName  xml.Name `xml:"gpx"`
	Metadata struct {
		Name string `xml:"name"`
		Desc string `xml:"desc"`
	} `xml:"metadata"`
	Tracks []struct {
		Name     string `xml:"name"`
		Desc     string `xml:"desc"`
		Segments []struct {
			Points []waypoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
	Routes []struct {
		Name   string     `xml:"name"`
		Desc   string     `xml:"desc"`
		Points []waypoint `xml:"rtept"`
	} `xml:"rte"`
}

// координаты читаются строками, чтобы некорректные значения давали ErrInvalidPoint
type waypoint struct {
	Lat string  `xml:"lat,attr"`
	Lon string  `xml:"lon,attr"`
	Ele *string `xml:"ele"`
}

// Parse читает GPX документ. Точки всех сегментов возвращаются в порядке
// документа; точки маршрута используются, только если точек трека нет.
func Parse(r io.Reader) (*Track, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode gpx: %w", err)
	}

	track := &Track{
		Name:        strings.TrimSpace(doc.Metadata.Name),
		Description: strings.TrimSpace(doc.Metadata.Desc),
	}

	var raw []waypoint
	for _, trk := range doc.Tracks {
		if track.Name == "" {
			track.Name = strings.TrimSpace(trk.Name)
		}
		if track.Description == "" {
			track.Description = strings.TrimSpace(trk.Desc)
		}
		for _, seg := range trk.Segments {
			raw = append(raw, seg.Points...)
		}
	}
	if len(raw) == 0 {
		for _, rte := range doc.Routes {
			if track.Name == "" {
				track.Name = strings.TrimSpace(rte.Name)
			}
			if track.Description == "" {
				track.Description = strings.TrimSpace(rte.Desc)
			}
			raw = append(raw, rte.Points...)
		}
	}
	if len(raw) == 0 {
		return nil, ErrNoTrackPoints
	}

	track.Points = make([]models.TrackPoint, 0, len(raw))
	for i, wp := range raw {
		point, hasEle, err := wp.toTrackPoint()
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if !hasEle {
			track.MissingElevation = append(track.MissingElevation, i)
		}
		track.Points = append(track.Points, point)
	}

	return track, nil
}

// ParseFile разбирает GPX файл по пути. Если в документе нет названия,
// используется имя файла.
func ParseFile(path string) (*Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gpx file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	track, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if track.Name == "" {
		track.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return track, nil
}

func (wp waypoint) toTrackPoint() (models.TrackPoint, bool, error) {
	lat, err := parseCoordinate(wp.Lat, 90)
	if err != nil {
		return models.TrackPoint{}, false, fmt.Errorf("%w: lat %q", ErrInvalidPoint, wp.Lat)
	}
	lon, err := parseCoordinate(wp.Lon, 180)
	if err != nil {
		return models.TrackPoint{}, false, fmt.Errorf("%w: lon %q", ErrInvalidPoint, wp.Lon)
	}

	point := models.TrackPoint{Lat: lat, Lon: lon}
	if wp.Ele == nil || strings.TrimSpace(*wp.Ele) == "" {
		return point, false, nil
	}
	ele, err := strconv.ParseFloat(strings.TrimSpace(*wp.Ele), 64)
	if err != nil || math.IsNaN(ele) || math.IsInf(ele, 0) {
		return models.TrackPoint{}, false, fmt.Errorf("%w: ele %q", ErrInvalidPoint, *wp.Ele)
	}
	point.Ele = ele
	return point, true, nil
}

func parseCoordinate(value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, fmt.Errorf("out of range")
	}
	return v, nil
}
