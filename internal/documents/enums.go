// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package documents

// EnumMapper assigns a total order (as integers) to a bounded categorical
// value set. It enables range queries over otherwise-unordered domain enums
// such as difficulty grades: "4b,6c" becomes an integer interval.
type EnumMapper struct {
	name     string
	ordinals map[string]int
	values   []string
}

// NewEnumMapper builds a mapper from an ordered label list. Ordinals start
// at the given base and increase by one per label.
func NewEnumMapper(name string, base int, labels ...string) *EnumMapper {
	m := &EnumMapper{
		name:     name,
		ordinals: make(map[string]int, len(labels)),
		values:   labels,
	}
	for i, l := range labels {
		m.ordinals[l] = base + i
	}
	return m
}

// Map returns the ordinal for a label and whether the label is valid.
func (m *EnumMapper) Map(label string) (int, bool) {
	v, ok := m.ordinals[label]
	return v, ok
}

// Name returns the mapper name, used in logs and registry diagnostics.
func (m *EnumMapper) Name() string { return m.name }

// Values returns the ordered label list.
func (m *EnumMapper) Values() []string { return m.values }

// Ordered enum tables. These orders are part of the index format: changing
// them requires a full rebuild of every index that stores the ordinals.
var (
	// QualityMapper orders document quality: empty(0) .. great(4).
	QualityMapper = NewEnumMapper("quality", 0,
		"empty", "draft", "medium", "fine", "great")

	// ClimbingRatingMapper orders free-climbing grades 2(1) .. 9c(36).
	ClimbingRatingMapper = NewEnumMapper("climbing_rating", 1,
		"2", "3a", "3b", "3c", "4a", "4b", "4c",
		"5a", "5a+", "5b", "5b+", "5c", "5c+",
		"6a", "6a+", "6b", "6b+", "6c", "6c+",
		"7a", "7a+", "7b", "7b+", "7c", "7c+",
		"8a", "8a+", "8b", "8b+", "8c", "8c+",
		"9a", "9a+", "9b", "9b+", "9c")

	// GlobalRatingMapper orders alpine global grades F(1) .. ED7(23).
	GlobalRatingMapper = NewEnumMapper("global_rating", 1,
		"F", "F+", "PD-", "PD", "PD+", "AD-", "AD", "AD+",
		"D-", "D", "D+", "TD-", "TD", "TD+", "ED-", "ED", "ED+",
		"ED4", "ED5", "ED6", "ED7")

	// HikingRatingMapper orders hiking grades T1(1) .. T5(5).
	HikingRatingMapper = NewEnumMapper("hiking_rating", 1,
		"T1", "T2", "T3", "T4", "T5")

	// SkiRatingMapper orders ski touring grades.
	SkiRatingMapper = NewEnumMapper("ski_rating", 1,
		"1.1", "1.2", "1.3", "2.1", "2.2", "2.3",
		"3.1", "3.2", "3.3", "4.1", "4.2", "4.3",
		"5.1", "5.2", "5.3", "5.4", "5.5", "5.6")

	// ConditionRatingMapper orders outing condition reports.
	ConditionRatingMapper = NewEnumMapper("condition_rating", 1,
		"awful", "poor", "average", "good", "excellent")

	// SeverityMapper orders accident-report severities.
	SeverityMapper = NewEnumMapper("severity", 1,
		"severity_no", "1d_to_3d", "4d_to_1m", "1m_to_3m", "more_than_3m")

	// FrequentationMapper orders observed route frequentation.
	FrequentationMapper = NewEnumMapper("frequentation", 1,
		"quiet", "some", "crowded", "overcrowded")
)

// Unordered categorical value sets used by plain enum filters.
var (
	Activities = []string{
		"skitouring", "snow_ice_mixed", "mountain_climbing", "rock_climbing",
		"ice_climbing", "hiking", "snowshoeing", "paragliding",
		"mountain_biking", "via_ferrata", "slacklining",
	}

	WaypointTypes = []string{
		"summit", "pass", "lake", "waterfall", "cave", "cliff", "glacier",
		"hut", "gite", "shelter", "camp_site", "access", "climbing_outdoor",
		"climbing_indoor", "paragliding_takeoff", "paragliding_landing",
		"webcam", "virtual", "misc",
	}

	RouteTypes = []string{
		"return_same_way", "loop", "loop_hut", "traverse", "raid", "expedition",
	}

	ArticleTypes = []string{"collab", "personal"}

	BookTypes = []string{
		"topo", "environment", "historical", "biography", "photos-art",
		"novel", "technics", "tourism-hiking", "magazine",
	}

	ImageTypes = []string{"collaborative", "personal", "copyright"}

	AreaTypes = []string{"range", "admin_limits", "country"}

	MapEditors = []string{"IGN", "Swisstopo", "Escursionista"}

	Orientations = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
)
