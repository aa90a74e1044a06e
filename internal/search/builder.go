// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package search

import (
	"fmt"
	"net/url"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/gorilla/schema"

	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/geo"
)

// MetaParams are the reserved query parameters, decoded apart from the
// per-type filter codes.
type MetaParams struct {
	Q      string `schema:"q"`
	BBox   string `schema:"bbox"`
	Lang   string `schema:"pl"`
	Limit  int    `schema:"limit"`
	Offset int    `schema:"offset"`
}

var metaDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// DecodeMeta extracts the reserved meta parameters from raw URL values.
// Malformed values degrade to their zero value; meta decoding never fails
// a request.
func DecodeMeta(params url.Values) MetaParams {
	var meta MetaParams
	// Decode errors are deliberately ignored: an unparseable limit or
	// offset falls back to the defaults applied in Build.
	_ = metaDecoder.Decode(&meta, params)
	return meta
}

// Builder composes filter compilation, free-text search, geo filtering and
// pagination into bleve search requests. It is immutable and safe for
// concurrent use.
type Builder struct {
	registries      Registries
	defaultPageSize int
	maxPageSize     int
}

// NewBuilder creates a request builder over prebuilt registries.
func NewBuilder(registries Registries, defaultPageSize, maxPageSize int) *Builder {
	if defaultPageSize <= 0 {
		defaultPageSize = 30
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Builder{
		registries:      registries,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Build translates URL parameters into a search request for one document
// type. Unknown parameter keys are ignored; malformed filter values compile
// to nothing (the filter is omitted). The only error condition is an
// unregistered document type.
func (b *Builder) Build(typ documents.DocumentType, params url.Values) (*bleve.SearchRequest, error) {
	registry, ok := b.registries[typ]
	if !ok {
		return nil, fmt.Errorf("no search registry for document type %q", typ)
	}

	meta := DecodeMeta(params)

	var clauses []query.Query
	hasText := meta.Q != ""
	if hasText {
		clauses = append(clauses, b.titleQuery(meta.Q, meta.Lang))
	}

	for key, values := range params {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		fd, known := registry[key]
		if !known || len(values) == 0 {
			continue
		}
		if q := Compile(fd, values[0]); q != nil {
			clauses = append(clauses, q)
		}
	}

	if meta.BBox != "" {
		if q := bboxQuery(meta.BBox); q != nil {
			clauses = append(clauses, q)
		}
	}

	var root query.Query
	switch len(clauses) {
	case 0:
		root = query.NewMatchAllQuery()
	case 1:
		root = clauses[0]
	default:
		root = query.NewConjunctionQuery(clauses)
	}

	limit, offset := b.paginate(meta)
	req := bleve.NewSearchRequestOptions(root, limit, offset, false)

	if !hasText {
		req.SortBy(sortFallback(typ))
	}
	return req, nil
}

// titleQuery builds the relevance-scored multi-language title search: a
// disjunction over every localized title field, with the requester's
// preferred language boosted so same-score ties resolve toward it.
func (b *Builder) titleQuery(text, preferredLang string) query.Query {
	qs := make([]query.Query, 0, len(documents.Languages))
	for _, lang := range documents.Languages {
		mq := query.NewMatchQuery(text)
		mq.SetField("title_" + lang)
		if lang == preferredLang {
			mq.SetBoost(2.0)
		}
		qs = append(qs, mq)
	}
	return query.NewDisjunctionQuery(qs)
}

// bboxQuery parses and reprojects the bbox parameter. Degenerate or
// malformed boxes yield no geo filter.
func bboxQuery(raw string) query.Query {
	box, ok := geo.ParseBBox(raw)
	if !ok {
		return nil
	}
	q := query.NewGeoBoundingBoxQuery(box.MinLon, box.MaxLat, box.MaxLon, box.MinLat)
	q.SetField("geom")
	return q
}

func (b *Builder) paginate(meta MetaParams) (limit, offset int) {
	limit = meta.Limit
	if limit <= 0 {
		limit = b.defaultPageSize
	}
	if limit > b.maxPageSize {
		limit = b.maxPageSize
	}
	offset = meta.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// sortFallback returns the deterministic tiebreak applied when no free-text
// term was supplied, guaranteeing stable pagination.
func sortFallback(typ documents.DocumentType) []string {
	switch typ {
	case documents.TypeOuting:
		return []string{"-date_end", "-id"}
	case documents.TypeXreport:
		return []string{"-date", "-id"}
	default:
		return []string{"-id"}
	}
}
