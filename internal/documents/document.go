// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package documents defines the document entities read from the relational
// store and the fixed vocabularies (document types, languages, ordered enum
// tables) shared by the search pipeline.
package documents

// DocumentType is the one-letter discriminant stored with every document.
type DocumentType string

// Document type discriminants. The letters are part of the public API
// (they appear in URLs and index names) and must never be reassigned.
const (
	TypeArea        DocumentType = "a"
	TypeBook        DocumentType = "b"
	TypeArticle     DocumentType = "c"
	TypeImage       DocumentType = "i"
	TypeMap         DocumentType = "m"
	TypeOuting      DocumentType = "o"
	TypeRoute       DocumentType = "r"
	TypeUserProfile DocumentType = "u"
	TypeWaypoint    DocumentType = "w"
	TypeXreport     DocumentType = "x"
)

// AllTypes lists every searchable document type in a stable order.
// Sync passes and registry construction iterate this slice.
var AllTypes = []DocumentType{
	TypeArea,
	TypeBook,
	TypeArticle,
	TypeImage,
	TypeMap,
	TypeOuting,
	TypeRoute,
	TypeUserProfile,
	TypeWaypoint,
	TypeXreport,
}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeArea, TypeBook, TypeArticle, TypeImage, TypeMap,
		TypeOuting, TypeRoute, TypeUserProfile, TypeWaypoint, TypeXreport:
		return true
	}
	return false
}

// Languages supported for document locales.
var Languages = []string{"ca", "de", "en", "es", "eu", "fr", "it"}

// Locale holds the translatable fields of a document in one language.
// TitlePrefix is only used by routes (the name of the main waypoint).
type Locale struct {
	Lang        string
	Title       string
	TitlePrefix string
	Summary     string
	Description string
}

// Point is a coordinate pair in the storage projection (EPSG:3857 meters).
type Point struct {
	X float64
	Y float64
}

// Document is the read-only projection of a relational document row plus its
// locales, geometry and containing areas. Fields holds the type-specific
// searchable attributes keyed by index field name; values are whatever the
// store produced (int64, float64, string, bool, []string, []int64).
type Document struct {
	DocumentID  int64
	Type        DocumentType
	RedirectsTo *int64
	Quality     string
	Geom        *Point
	Locales     []Locale
	AreaIDs     []int64
	Fields      map[string]any
	ViewCount   int64
}

// Redirected reports whether the document is a merge/delete tombstone.
// Redirected documents must never appear in the search index.
func (d *Document) Redirected() bool {
	return d.RedirectsTo != nil
}
