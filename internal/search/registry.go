// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package search

import (
	"fmt"

	"github.com/jmrenard/cairn/internal/documents"
)

// Reserved meta-parameter keys. These drive free text, geo, language and
// pagination and may never collide with a field short code.
const (
	ParamQuery  = "q"
	ParamBBox   = "bbox"
	ParamLang   = "pl"
	ParamLimit  = "limit"
	ParamOffset = "offset"
)

var reservedKeys = map[string]struct{}{
	ParamQuery:  {},
	ParamBBox:   {},
	ParamLang:   {},
	ParamLimit:  {},
	ParamOffset: {},
}

// Registry maps query-parameter short codes to field descriptors for one
// document type. A registry is built once at startup and never mutated;
// concurrent reads from request handlers are safe.
type Registry map[string]FieldDescriptor

// BuildRegistry constructs the registry for a document type. A duplicate
// short code, or a collision with a reserved meta key, is a configuration
// error: the service must refuse to serve the type rather than silently
// shadow a filter.
func BuildRegistry(typ documents.DocumentType) (Registry, error) {
	fields, ok := typeFields[typ]
	if !ok {
		return nil, fmt.Errorf("no field table for document type %q", typ)
	}

	reg := make(Registry, len(fields)+3)
	for _, fd := range append(commonFields(), fields...) {
		if _, reserved := reservedKeys[fd.Key]; reserved {
			return nil, fmt.Errorf("document type %q: field key %q collides with a reserved parameter", typ, fd.Key)
		}
		if prev, dup := reg[fd.Key]; dup {
			return nil, fmt.Errorf("document type %q: duplicate field key %q (fields %q and %q)",
				typ, fd.Key, prev.Field, fd.Field)
		}
		reg[fd.Key] = fd
	}
	return reg, nil
}

// Registries holds the immutable registry of every document type.
type Registries map[documents.DocumentType]Registry

// BuildAll builds the registries for all document types, failing fast on the
// first configuration error.
func BuildAll() (Registries, error) {
	all := make(Registries, len(documents.AllTypes))
	for _, typ := range documents.AllTypes {
		reg, err := BuildRegistry(typ)
		if err != nil {
			return nil, err
		}
		all[typ] = reg
	}
	return all, nil
}
