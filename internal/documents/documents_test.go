// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package documents

import "testing"

func TestDocumentTypeValid(t *testing.T) {
	for _, typ := range AllTypes {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	for _, typ := range []DocumentType{"", "z", "ro", "A"} {
		if typ.Valid() {
			t.Errorf("%q should be invalid", typ)
		}
	}
}

func TestRedirected(t *testing.T) {
	doc := &Document{DocumentID: 1}
	if doc.Redirected() {
		t.Error("document without redirect reported as redirected")
	}
	target := int64(2)
	doc.RedirectsTo = &target
	if !doc.Redirected() {
		t.Error("redirect not detected")
	}
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Mont Blanc", "Mont Blanc"},
		{"no brackets fast path", "Voie normale", "Voie normale"},
		{"bold pair", "Lac [b]Blanc[/b]", "Lac Blanc"},
		{"nested tags", "[i][b]steep[/b][/i]", "steep"},
		{"url with attribute", "see [url=http://example.org]topo[/url]", "see topo"},
		{"email", "[email]x@y.z[/email]", "x@y.z"},
		{"unknown tag kept", "pitch [5c] then easier", "pitch [5c] then easier"},
		{"unclosed bracket kept", "glacier [moving", "glacier [moving"},
		{"mixed known and unknown", "[b]N[/b] face [topo]", "N face [topo]"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripMarkup(tc.in); got != tc.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEnumMapperOrdinals(t *testing.T) {
	tests := []struct {
		mapper *EnumMapper
		label  string
		want   int
	}{
		{QualityMapper, "empty", 0},
		{QualityMapper, "medium", 2},
		{QualityMapper, "great", 4},
		{ClimbingRatingMapper, "2", 1},
		{ClimbingRatingMapper, "4b", 6},
		{ClimbingRatingMapper, "6c", 18},
		{ClimbingRatingMapper, "9c", 36},
		{GlobalRatingMapper, "F", 1},
		{GlobalRatingMapper, "TD", 13},
		{HikingRatingMapper, "T5", 5},
		{SeverityMapper, "severity_no", 1},
	}
	for _, tc := range tests {
		got, ok := tc.mapper.Map(tc.label)
		if !ok || got != tc.want {
			t.Errorf("%s.Map(%q) = %d, %v, want %d", tc.mapper.Name(), tc.label, got, ok, tc.want)
		}
	}
}

func TestEnumMapperUnknownLabel(t *testing.T) {
	if _, ok := QualityMapper.Map("excellent"); ok {
		t.Error("unknown label mapped")
	}
	if _, ok := ClimbingRatingMapper.Map(""); ok {
		t.Error("empty label mapped")
	}
}

func TestEnumMapperValuesOrder(t *testing.T) {
	values := QualityMapper.Values()
	prev := -1
	for _, v := range values {
		ord, ok := QualityMapper.Map(v)
		if !ok {
			t.Fatalf("value %q not mapped by its own mapper", v)
		}
		if ord <= prev {
			t.Errorf("ordinals not strictly increasing at %q", v)
		}
		prev = ord
	}
}
