package geo

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	fieldLonSize    = 20.0
	fieldLatSize    = 10.0
	squareLonSize   = 2.0
	squareLatSize   = 1.0
	subLonSize      = squareLonSize / 24.0
	subLatSize      = squareLatSize / 24.0
	squareCenterLon = squareLonSize / 2.0
	squareCenterLat = squareLatSize / 2.0
)

// LocatorCenter returns the center lat/lon in degrees of a 4 or 6 character
// Maidenhead locator.
func LocatorCenter(loc string) (lat float64, lon float64, ok bool) {
	g := strings.ToUpper(strings.TrimSpace(loc))
	if len(g) != 4 && len(g) != 6 {
		return 0, 0, false
	}
	a, b := g[0], g[1]
	if a < 'A' || a > 'R' || b < 'A' || b > 'R' {
		return 0, 0, false
	}
	d0, d1 := g[2], g[3]
	if d0 < '0' || d0 > '9' || d1 < '0' || d1 > '9' {
		return 0, 0, false
	}
	lon = -180.0 + float64(a-'A')*fieldLonSize + float64(d0-'0')*squareLonSize
	lat = -90.0 + float64(b-'A')*fieldLatSize + float64(d1-'0')*squareLatSize
	if len(g) == 6 {
		s0, s1 := g[4], g[5]
		if s0 < 'A' || s0 > 'X' || s1 < 'A' || s1 > 'X' {
			return 0, 0, false
		}
		lon += float64(s0-'A')*subLonSize + subLonSize/2
		lat += float64(s1-'A')*subLatSize + subLatSize/2
		return lat, lon, true
	}
	return lat + squareCenterLat, lon + squareCenterLon, true
}

// ParsePoint accepts either "lat,lon" in degrees or a Maidenhead locator.
func ParsePoint(s string) (Point, error) {
	trimmed := strings.TrimSpace(s)
	if lat, lon, ok := LocatorCenter(trimmed); ok {
		return PointFromDegrees(lat, lon), nil
	}
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid location %q: want lat,lon or a locator", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("latitude %.3f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("longitude %.3f out of range", lon)
	}
	return PointFromDegrees(lat, lon), nil
}
