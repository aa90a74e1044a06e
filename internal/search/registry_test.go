// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package search

import (
	"strings"
	"testing"

	"github.com/jmrenard/cairn/internal/documents"
)

func TestBuildAllSucceeds(t *testing.T) {
	all, err := BuildAll()
	if err != nil {
		t.Fatalf("BuildAll() error: %v", err)
	}
	if len(all) != len(documents.AllTypes) {
		t.Errorf("registries = %d, want %d", len(all), len(documents.AllTypes))
	}
	for _, typ := range documents.AllTypes {
		reg, ok := all[typ]
		if !ok {
			t.Errorf("missing registry for type %q", typ)
			continue
		}
		// The common fields are present on every type.
		for _, key := range []string{"qa", "a", "l"} {
			if _, ok := reg[key]; !ok {
				t.Errorf("type %q: missing common field %q", typ, key)
			}
		}
	}
}

func TestBuildRegistryUnknownType(t *testing.T) {
	if _, err := BuildRegistry(documents.DocumentType("z")); err == nil {
		t.Error("expected error for unknown document type")
	}
}

func TestBuildRegistryDuplicateKey(t *testing.T) {
	saved := typeFields[documents.TypeArea]
	defer func() { typeFields[documents.TypeArea] = saved }()

	typeFields[documents.TypeArea] = append(saved[:len(saved):len(saved)],
		RangeField("atyp", "other_field"))

	_, err := BuildRegistry(documents.TypeArea)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %q, want mention of duplicate", err)
	}
}

func TestBuildRegistryReservedKeyCollision(t *testing.T) {
	saved := typeFields[documents.TypeArea]
	defer func() { typeFields[documents.TypeArea] = saved }()

	typeFields[documents.TypeArea] = append(saved[:len(saved):len(saved)],
		RangeField("limit", "some_field"))

	_, err := BuildRegistry(documents.TypeArea)
	if err == nil {
		t.Fatal("expected reserved key error")
	}
	if !strings.Contains(err.Error(), "reserved") {
		t.Errorf("error = %q, want mention of reserved", err)
	}
}

func TestShortCodesNeverReserved(t *testing.T) {
	for typ, fields := range typeFields {
		for _, fd := range fields {
			if _, bad := reservedKeys[fd.Key]; bad {
				t.Errorf("type %q: field key %q is a reserved parameter", typ, fd.Key)
			}
		}
	}
}
