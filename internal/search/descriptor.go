// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package search turns URL query parameters into structured bleve search
// requests. It is organized as three layers: immutable per-type field
// registries (short query code -> typed field descriptor), a pure filter
// compiler (descriptor + raw value -> bleve query), and a request builder
// that composes filters, free text, geo and pagination.
package search

import (
	"github.com/jmrenard/cairn/internal/documents"
)

// FieldKind discriminates the closed set of field descriptor variants.
// Filter compilation dispatches on this tag; there is deliberately no
// interface or inheritance involved.
type FieldKind int

const (
	// KindRange is a numeric field queried as an inclusive gte/lte interval.
	KindRange FieldKind = iota
	// KindEnum is a categorical field matched against a fixed value set.
	KindEnum
	// KindEnumRange is a single ordinal field; enum labels are mapped to
	// integers and queried as an interval.
	KindEnumRange
	// KindEnumRangeMinMax is a pair of ordinal fields queried as a
	// ranges-overlap test against a mapped enum interval.
	KindEnumRangeMinMax
	// KindMinMax is a pair of numeric fields queried as a ranges-overlap
	// test against a raw numeric interval.
	KindMinMax
	// KindBool is a boolean field.
	KindBool
	// KindDate is a single date field queried as an inclusive interval.
	KindDate
	// KindDateRange is a start/end date pair queried as a date-overlap test.
	KindDateRange
	// KindID is an integer identifier field matched by term or term set.
	KindID
)

// FieldDescriptor describes one searchable attribute of one document type.
// It is plain data: which variant applies, the underlying index field
// name(s), and the variant-specific metadata. Descriptors are built once at
// startup and never mutated, so they are safe for concurrent reads.
type FieldDescriptor struct {
	// Key is the short query-parameter code, unique within a type registry
	// and disjoint from the reserved meta keys.
	Key string

	Kind FieldKind

	// Field is the index field for single-field variants.
	Field string

	// MinField/MaxField name the paired fields of min/max and date-range
	// variants. PresenceField is the companion boolean the serializer emits
	// when either bound is present; the compiler uses it as an exists test.
	MinField      string
	MaxField      string
	PresenceField string

	// Values is the valid label set for KindEnum.
	Values []string

	// Mapper converts enum labels to ordinals for the enum-range variants.
	Mapper *documents.EnumMapper
}

// RangeField declares a numeric range field.
func RangeField(key, field string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindRange, Field: field}
}

// EnumField declares a categorical field with its valid value set.
func EnumField(key, field string, values []string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindEnum, Field: field, Values: values}
}

// EnumRangeField declares a single ordinal field backed by an enum mapper.
func EnumRangeField(key, field string, mapper *documents.EnumMapper) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindEnumRange, Field: field, Mapper: mapper}
}

// EnumRangeMinMaxField declares an ordinal min/max pair. base names the
// entity attribute; the index fields are base_min, base_max and base_set.
func EnumRangeMinMaxField(key, base string, mapper *documents.EnumMapper) FieldDescriptor {
	return FieldDescriptor{
		Key:           key,
		Kind:          KindEnumRangeMinMax,
		MinField:      base + "_min",
		MaxField:      base + "_max",
		PresenceField: base + "_set",
		Mapper:        mapper,
	}
}

// MinMaxField declares a raw numeric min/max pair, analogous to
// EnumRangeMinMaxField without the label mapping.
func MinMaxField(key, base string) FieldDescriptor {
	return FieldDescriptor{
		Key:           key,
		Kind:          KindMinMax,
		MinField:      base + "_min",
		MaxField:      base + "_max",
		PresenceField: base + "_set",
	}
}

// BoolField declares a boolean field.
func BoolField(key, field string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindBool, Field: field}
}

// DateField declares a single date field.
func DateField(key, field string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindDate, Field: field}
}

// DateRangeField declares a start/end date pair.
func DateRangeField(key, startField, endField string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindDateRange, MinField: startField, MaxField: endField}
}

// IDField declares an integer identifier field.
func IDField(key, field string) FieldDescriptor {
	return FieldDescriptor{Key: key, Kind: KindID, Field: field}
}
