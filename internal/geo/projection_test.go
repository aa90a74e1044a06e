// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package geo

import (
	"math"
	"testing"
)

func TestProjectUnprojectRoundTrip(t *testing.T) {
	points := []struct {
		name string
		lon  float64
		lat  float64
	}{
		{name: "origin", lon: 0, lat: 0},
		{name: "chamonix", lon: 6.8694, lat: 45.9237},
		{name: "southern hemisphere", lon: -70.0, lat: -33.0},
		{name: "high latitude", lon: 15.0, lat: 78.0},
	}
	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			x, y := Project(p.lon, p.lat)
			lon, lat := Unproject(x, y)
			if math.Abs(lon-p.lon) > 1e-6 || math.Abs(lat-p.lat) > 1e-6 {
				t.Errorf("round trip (%v, %v) -> (%v, %v)", p.lon, p.lat, lon, lat)
			}
		})
	}
}

func TestUnprojectKnownPoint(t *testing.T) {
	// 111319.49079327358 meters is one degree of longitude at the equator
	// in spherical mercator.
	lon, lat := Unproject(111319.49079327358, 0)
	if math.Abs(lon-1.0) > 1e-9 {
		t.Errorf("lon = %v, want 1.0", lon)
	}
	if math.Abs(lat) > 1e-9 {
		t.Errorf("lat = %v, want 0", lat)
	}
}

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "valid", raw: "668518,5728802,690768,5745253", ok: true},
		{name: "valid floats", raw: "668518.5,5728802.5,690768.5,5745253.5", ok: true},
		{name: "valid with spaces", raw: "668518, 5728802, 690768, 5745253", ok: true},
		{name: "three coords", raw: "1,2,3", ok: false},
		{name: "five coords", raw: "1,2,3,4,5", ok: false},
		{name: "garbage coord", raw: "1,2,abc,4", ok: false},
		{name: "nan coord", raw: "1,2,NaN,4", ok: false},
		{name: "inf coord", raw: "1,2,+Inf,4", ok: false},
		{name: "zero width", raw: "1,2,1,4", ok: false},
		{name: "zero height", raw: "1,2,3,2", ok: false},
		{name: "empty", raw: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseBBox(tt.raw)
			if ok != tt.ok {
				t.Errorf("ParseBBox(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
		})
	}
}

func TestParseBBoxReprojects(t *testing.T) {
	// A box around the Mont Blanc massif, given in EPSG:3857 meters.
	box, ok := ParseBBox("738000,5735000,790000,5790000")
	if !ok {
		t.Fatal("expected valid bbox")
	}
	if box.MinLon >= box.MaxLon || box.MinLat >= box.MaxLat {
		t.Errorf("box is not normalized: %+v", box)
	}
	if box.MinLon < 6.5 || box.MaxLon > 7.2 {
		t.Errorf("longitudes out of expected band: %+v", box)
	}
	if box.MinLat < 45.5 || box.MaxLat > 46.1 {
		t.Errorf("latitudes out of expected band: %+v", box)
	}
}
