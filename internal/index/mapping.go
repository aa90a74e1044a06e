// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/search"
)

// buildMapping derives the bleve index mapping for one document type from
// its field registry: standard-analyzed text for localized title/summary/
// description, keyword terms for enums, numerics for ordinals and ids,
// datetimes for dates and a geopoint for the document location.
func buildMapping(registry search.Registry) mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	for _, lang := range documents.Languages {
		doc.AddFieldMappingsAt("title_"+lang, text)
		doc.AddFieldMappingsAt("summary_"+lang, text)
		doc.AddFieldMappingsAt("description_"+lang, text)
	}

	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()
	boolean := bleve.NewBooleanFieldMapping()
	datetime := bleve.NewDateTimeFieldMapping()

	doc.AddFieldMappingsAt("doc_type", keyword)
	doc.AddFieldMappingsAt("available_locales", keyword)
	doc.AddFieldMappingsAt("id", numeric)
	doc.AddFieldMappingsAt("views", numeric)
	doc.AddFieldMappingsAt("geom", bleve.NewGeoPointFieldMapping())

	for _, fd := range registry {
		switch fd.Kind {
		case search.KindEnum:
			doc.AddFieldMappingsAt(fd.Field, keyword)
		case search.KindRange, search.KindEnumRange, search.KindID:
			doc.AddFieldMappingsAt(fd.Field, numeric)
		case search.KindBool:
			doc.AddFieldMappingsAt(fd.Field, boolean)
		case search.KindDate:
			doc.AddFieldMappingsAt(fd.Field, datetime)
		case search.KindDateRange:
			doc.AddFieldMappingsAt(fd.MinField, datetime)
			doc.AddFieldMappingsAt(fd.MaxField, datetime)
		case search.KindEnumRangeMinMax, search.KindMinMax:
			doc.AddFieldMappingsAt(fd.MinField, numeric)
			doc.AddFieldMappingsAt(fd.MaxField, numeric)
			doc.AddFieldMappingsAt(fd.PresenceField, boolean)
		}
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// OpenIndexes opens (or creates) one bleve index per document type under
// dir, named {prefix}_{type}.
func OpenIndexes(dir, prefix string, registries search.Registries) (map[documents.DocumentType]bleve.Index, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create index directory %s: %w", dir, err)
	}

	indexes := make(map[documents.DocumentType]bleve.Index, len(documents.AllTypes))
	for _, typ := range documents.AllTypes {
		registry, ok := registries[typ]
		if !ok {
			closeAll(indexes)
			return nil, fmt.Errorf("no registry for document type %q", typ)
		}
		path := filepath.Join(dir, IndexName(prefix, typ))
		idx, err := bleve.Open(path)
		if err != nil {
			idx, err = bleve.New(path, buildMapping(registry))
			if err != nil {
				closeAll(indexes)
				return nil, fmt.Errorf("open index %s: %w", path, err)
			}
		}
		indexes[typ] = idx
	}
	return indexes, nil
}

// OpenMemIndexes builds in-memory indexes, used by tests and the one-shot
// rebuild dry-run mode.
func OpenMemIndexes(registries search.Registries) (map[documents.DocumentType]bleve.Index, error) {
	indexes := make(map[documents.DocumentType]bleve.Index, len(documents.AllTypes))
	for _, typ := range documents.AllTypes {
		registry, ok := registries[typ]
		if !ok {
			closeAll(indexes)
			return nil, fmt.Errorf("no registry for document type %q", typ)
		}
		idx, err := bleve.NewMemOnly(buildMapping(registry))
		if err != nil {
			closeAll(indexes)
			return nil, fmt.Errorf("create in-memory index for %q: %w", typ, err)
		}
		indexes[typ] = idx
	}
	return indexes, nil
}

func closeAll(indexes map[documents.DocumentType]bleve.Index) {
	for _, idx := range indexes {
		_ = idx.Close()
	}
}
