// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package index serializes documents into flat index records and applies
// them to the per-type bleve indexes in bounded batches.
package index

import (
	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/geo"
	"github.com/jmrenard/cairn/internal/search"
)

// Operation types carried on records.
const (
	OpIndex  = "index"
	OpDelete = "delete"
)

// titleSeparator joins a route's waypoint name prefix to its own title.
const titleSeparator = " : "

// Record is the flattened, index-ready projection of one document. Fields
// is nil for delete operations: a redirected document carries nothing but
// its identity.
type Record struct {
	ID     int64
	Index  string
	OpType string
	Fields map[string]any
}

// IndexName derives the per-type index name from the configured prefix.
func IndexName(prefix string, typ documents.DocumentType) string {
	return prefix + "_" + string(typ)
}

// ToRecord maps a document to its index record. Documents with a redirect
// produce a delete operation and nothing else; they must never be upserted.
// The registry supplies the type's declared searchable fields: plain-copy
// fields are taken from the document attributes as-is, enum-range fields go
// through their enum-to-ordinal mappers, and min/max pairs additionally emit
// a presence flag used by overlap filters as an exists test.
func ToRecord(doc *documents.Document, prefix string, registry search.Registry) *Record {
	rec := &Record{
		ID:    doc.DocumentID,
		Index: IndexName(prefix, doc.Type),
	}
	if doc.Redirected() {
		rec.OpType = OpDelete
		return rec
	}

	rec.OpType = OpIndex
	fields := map[string]any{
		"id":       doc.DocumentID,
		"doc_type": string(doc.Type),
		"views":    doc.ViewCount,
	}

	locales := make([]string, 0, len(doc.Locales))
	for _, loc := range doc.Locales {
		locales = append(locales, loc.Lang)
		if title := localizedTitle(doc.Type, loc); title != "" {
			fields["title_"+loc.Lang] = documents.StripMarkup(title)
		}
		if loc.Summary != "" {
			fields["summary_"+loc.Lang] = documents.StripMarkup(loc.Summary)
		}
		if loc.Description != "" {
			fields["description_"+loc.Lang] = documents.StripMarkup(loc.Description)
		}
	}
	fields["available_locales"] = locales

	if doc.Quality != "" {
		if q, ok := documents.QualityMapper.Map(doc.Quality); ok {
			fields["quality"] = q
		}
	}

	if doc.Geom != nil {
		lon, lat := geo.Unproject(doc.Geom.X, doc.Geom.Y)
		fields["geom"] = map[string]any{"lon": lon, "lat": lat}
	}

	// Areas and maps never reference containing areas (no self-reference).
	if doc.Type != documents.TypeArea && doc.Type != documents.TypeMap && len(doc.AreaIDs) > 0 {
		fields["areas"] = doc.AreaIDs
	}

	copyDeclaredFields(doc, registry, fields)

	rec.Fields = fields
	return rec
}

// localizedTitle composes the indexable title for one locale. Route titles
// are prefixed with the main waypoint name; when the route's own title is
// empty the trailing separator is trimmed away.
func localizedTitle(typ documents.DocumentType, loc documents.Locale) string {
	if typ != documents.TypeRoute || loc.TitlePrefix == "" {
		return loc.Title
	}
	if loc.Title == "" {
		return loc.TitlePrefix
	}
	return loc.TitlePrefix + titleSeparator + loc.Title
}

// handledElsewhere lists index fields the serializer populates directly;
// registry descriptors over these fields are skipped during the copy pass.
var handledElsewhere = map[string]struct{}{
	"quality":           {},
	"areas":             {},
	"available_locales": {},
}

func copyDeclaredFields(doc *documents.Document, registry search.Registry, fields map[string]any) {
	for _, fd := range registry {
		switch fd.Kind {
		case search.KindEnumRange:
			if _, skip := handledElsewhere[fd.Field]; skip {
				continue
			}
			if label, ok := doc.Fields[fd.Field].(string); ok {
				if v, mapped := fd.Mapper.Map(label); mapped {
					fields[fd.Field] = v
				}
			}
		case search.KindEnumRangeMinMax:
			set := false
			if label, ok := doc.Fields[fd.MinField].(string); ok {
				if v, mapped := fd.Mapper.Map(label); mapped {
					fields[fd.MinField] = v
					set = true
				}
			}
			if label, ok := doc.Fields[fd.MaxField].(string); ok {
				if v, mapped := fd.Mapper.Map(label); mapped {
					fields[fd.MaxField] = v
					set = true
				}
			}
			if set {
				fields[fd.PresenceField] = true
			}
		case search.KindMinMax:
			set := false
			if v, ok := doc.Fields[fd.MinField]; ok && v != nil {
				fields[fd.MinField] = v
				set = true
			}
			if v, ok := doc.Fields[fd.MaxField]; ok && v != nil {
				fields[fd.MaxField] = v
				set = true
			}
			if set {
				fields[fd.PresenceField] = true
			}
		case search.KindDateRange:
			for _, f := range []string{fd.MinField, fd.MaxField} {
				if v, ok := doc.Fields[f]; ok && v != nil {
					fields[f] = v
				}
			}
		default:
			if _, skip := handledElsewhere[fd.Field]; skip {
				continue
			}
			if v, ok := doc.Fields[fd.Field]; ok && v != nil {
				fields[fd.Field] = v
			}
		}
	}
}
