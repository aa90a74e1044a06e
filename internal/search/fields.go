// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package search

import (
	"github.com/jmrenard/cairn/internal/documents"
)

// commonFields are registered for every document type: quality, containing
// areas and available locales.
func commonFields() []FieldDescriptor {
	return []FieldDescriptor{
		EnumRangeField("qa", "quality", documents.QualityMapper),
		IDField("a", "areas"),
		EnumField("l", "available_locales", documents.Languages),
	}
}

// typeFields is the declarative per-type field table. The short codes are
// public API (they appear in URLs); changing one is a breaking change.
var typeFields = map[documents.DocumentType][]FieldDescriptor{
	documents.TypeWaypoint: {
		RangeField("walt", "elevation"),
		RangeField("prom", "prominence"),
		EnumField("wtyp", "waypoint_type", documents.WaypointTypes),
		EnumRangeMinMaxField("wrat", "climbing_rating", documents.ClimbingRatingMapper),
		BoolField("phone", "custodianship"),
	},
	documents.TypeRoute: {
		EnumField("act", "activities", documents.Activities),
		EnumField("rtyp", "route_types", documents.RouteTypes),
		EnumField("fac", "orientations", documents.Orientations),
		RangeField("hdif", "height_diff_up"),
		RangeField("rlen", "route_length"),
		MinMaxField("ralt", "elevation"),
		EnumRangeField("frat", "global_rating", documents.GlobalRatingMapper),
		EnumRangeField("hrat", "hiking_rating", documents.HikingRatingMapper),
		EnumRangeField("trat", "ski_rating", documents.SkiRatingMapper),
		EnumRangeMinMaxField("crat", "climbing_rating", documents.ClimbingRatingMapper),
	},
	documents.TypeOuting: {
		DateRangeField("date", "date_start", "date_end"),
		EnumField("act", "activities", documents.Activities),
		RangeField("oalt", "elevation_max"),
		RangeField("ohdif", "height_diff_up"),
		EnumField("cond", "condition_rating", documents.ConditionRatingMapper.Values()),
		EnumRangeField("ofrat", "global_rating", documents.GlobalRatingMapper),
		BoolField("owpt", "public_transport"),
	},
	documents.TypeXreport: {
		DateField("xdate", "date"),
		EnumField("act", "activities", documents.Activities),
		RangeField("nb", "nb_participants"),
		RangeField("xalt", "elevation"),
		EnumRangeField("sev", "severity", documents.SeverityMapper),
	},
	documents.TypeArticle: {
		EnumField("act", "activities", documents.Activities),
		EnumField("atyp", "article_type", documents.ArticleTypes),
	},
	documents.TypeBook: {
		EnumField("act", "activities", documents.Activities),
		EnumField("btyp", "book_types", documents.BookTypes),
		RangeField("nbp", "nb_pages"),
	},
	documents.TypeImage: {
		DateField("idate", "date_time"),
		EnumField("act", "activities", documents.Activities),
		EnumField("ityp", "image_type", documents.ImageTypes),
		RangeField("ialt", "elevation"),
	},
	documents.TypeArea: {
		EnumField("atyp", "area_type", documents.AreaTypes),
	},
	documents.TypeMap: {
		EnumField("medit", "editor", documents.MapEditors),
	},
	documents.TypeUserProfile: {
		EnumField("act", "activities", documents.Activities),
	},
}
