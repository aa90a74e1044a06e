// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package geo converts between the storage projection (EPSG:3857 spherical
// mercator, meters) and geographic WGS84 coordinates (degrees), and parses
// the bbox query parameter.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// earthRadius is the spherical mercator earth radius in meters (EPSG:3857).
const earthRadius = 6378137.0

// Unproject converts projected EPSG:3857 coordinates to WGS84 lon/lat degrees.
func Unproject(x, y float64) (lon, lat float64) {
	lon = x / earthRadius * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// Project converts WGS84 lon/lat degrees to EPSG:3857 meters.
func Project(lon, lat float64) (x, y float64) {
	x = lon * math.Pi / 180 * earthRadius
	y = math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * earthRadius
	return x, y
}

// BBox is a geographic bounding box in WGS84 degrees.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBBox parses "xmin,ymin,xmax,ymax" in projected EPSG:3857 coordinates
// and returns the reprojected geographic box. It returns ok=false when any
// coordinate fails to parse, is not finite, or the box is degenerate (zero
// width or height). Malformed boxes are dropped, not errors: the caller
// simply omits the geo filter.
func ParseBBox(raw string) (BBox, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, false
	}
	coords := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return BBox{}, false
		}
		coords[i] = v
	}
	if coords[0] == coords[2] || coords[1] == coords[3] {
		return BBox{}, false
	}
	minLon, minLat := Unproject(coords[0], coords[1])
	maxLon, maxLat := Unproject(coords[2], coords[3])
	return BBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}, true
}
