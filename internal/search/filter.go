// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jmrenard/cairn/internal/documents"
)

// Compile turns a raw query-parameter value into a bleve filter query for
// the given descriptor. It returns nil when no filter applies.
//
// Malformed or unparseable tokens are silently dropped rather than rejected:
// a bad value weakens or omits a filter but never fails the request. This is
// deliberate API behavior for a public search endpoint and must not be
// tightened to hard validation.
func Compile(fd FieldDescriptor, raw string) query.Query {
	if raw == "" {
		return nil
	}

	switch fd.Kind {
	case KindRange:
		return compileRange(fd, raw)
	case KindEnum:
		return compileEnum(fd, raw)
	case KindEnumRange:
		return compileEnumRange(fd, raw)
	case KindEnumRangeMinMax:
		return compileOverlap(fd, mapEnumTokens(fd.Mapper, splitTokens(raw, 2)))
	case KindMinMax:
		return compileOverlap(fd, parseNumberTokens(splitTokens(raw, 2)))
	case KindBool:
		return compileBool(fd, raw)
	case KindDate:
		return compileDate(fd, raw)
	case KindDateRange:
		return compileDateRange(fd, raw)
	case KindID:
		return compileID(fd, raw)
	}
	return nil
}

// splitTokens splits on commas, keeping at most max tokens (0 = unbounded).
func splitTokens(raw string, max int) []string {
	tokens := strings.Split(raw, ",")
	if max > 0 && len(tokens) > max {
		tokens = tokens[:max]
	}
	return tokens
}

// parseNumber tries integer first, then float. NaN and infinities are
// rejected like any other unparseable token.
func parseNumber(tok string) (float64, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return float64(i), true
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumberTokens(tokens []string) []float64 {
	out := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		if v, ok := parseNumber(t); ok {
			out = append(out, v)
		}
	}
	return out
}

// mapEnumTokens maps labels through the enum mapper, dropping invalid ones.
// Token order is preserved: values are not sorted.
func mapEnumTokens(mapper *documents.EnumMapper, tokens []string) []float64 {
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if v, ok := mapper.Map(strings.TrimSpace(tok)); ok {
			out = append(out, float64(v))
		}
	}
	return out
}

var datePattern = regexp.MustCompile(`^(\d{2})?(\d{2})-(\d{1,2})-(\d{1,2})$`)

// parseDate accepts (YY)?YY-M(M)-D(D). A missing century means 20YY.
func parseDate(tok string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(tok))
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	if m[1] != "" {
		century, _ := strconv.Atoi(m[1])
		year += century * 100
	} else {
		year += 2000
	}
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject normalized overflow such as 2016-02-31.
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func numericRange(field string, min, max *float64, minIncl, maxIncl bool) query.Query {
	q := query.NewNumericRangeInclusiveQuery(min, max, bptr(minIncl), bptr(maxIncl))
	q.SetField(field)
	return q
}

func compileRange(fd FieldDescriptor, raw string) query.Query {
	tokens := splitTokens(raw, 2)
	var min, max *float64
	if v, ok := parseNumber(tokens[0]); ok {
		min = fptr(v)
	}
	if len(tokens) > 1 {
		if v, ok := parseNumber(tokens[1]); ok {
			max = fptr(v)
		}
	}
	if min == nil && max == nil {
		return nil
	}
	return numericRange(fd.Field, min, max, true, true)
}

func compileEnum(fd FieldDescriptor, raw string) query.Query {
	valid := make(map[string]struct{}, len(fd.Values))
	for _, v := range fd.Values {
		valid[v] = struct{}{}
	}
	var kept []string
	for _, tok := range splitTokens(raw, 0) {
		tok = strings.TrimSpace(tok)
		if _, ok := valid[tok]; ok {
			kept = append(kept, tok)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return termQuery(fd.Field, kept[0])
	default:
		qs := make([]query.Query, len(kept))
		for i, v := range kept {
			qs[i] = termQuery(fd.Field, v)
		}
		return query.NewDisjunctionQuery(qs)
	}
}

func termQuery(field, term string) query.Query {
	q := query.NewTermQuery(term)
	q.SetField(field)
	return q
}

func compileEnumRange(fd FieldDescriptor, raw string) query.Query {
	mapped := mapEnumTokens(fd.Mapper, splitTokens(raw, 2))
	// Surviving values are used in literal token order: the first is the
	// lower bound, the second the upper bound. A reversed pair yields an
	// inverted (empty) interval on purpose; see the API compatibility notes.
	var min, max *float64
	if len(mapped) > 0 {
		min = fptr(mapped[0])
	}
	if len(mapped) > 1 {
		max = fptr(mapped[1])
	}
	if min == nil && max == nil {
		return nil
	}
	return numericRange(fd.Field, min, max, true, true)
}

// compileOverlap builds the ranges-overlap predicate for a min/max field
// pair. It requires exactly two valid bounds; partial input compiles to no
// filter at all. The overlap test is expressed by its complement:
//
//	NOT(min > queriedMax) AND NOT(max < queriedMin) AND pair present
func compileOverlap(fd FieldDescriptor, bounds []float64) query.Query {
	if len(bounds) != 2 {
		return nil
	}
	queriedMin, queriedMax := bounds[0], bounds[1]

	present := query.NewBoolFieldQuery(true)
	present.SetField(fd.PresenceField)

	return query.NewBooleanQuery(
		[]query.Query{present},
		nil,
		[]query.Query{
			numericRange(fd.MinField, fptr(queriedMax), nil, false, true),
			numericRange(fd.MaxField, nil, fptr(queriedMin), true, false),
		},
	)
}

func compileBool(fd FieldDescriptor, raw string) query.Query {
	var val bool
	switch strings.TrimSpace(raw) {
	case "true", "True", "1":
		val = true
	case "false", "False", "0":
		val = false
	default:
		return nil
	}
	q := query.NewBoolFieldQuery(val)
	q.SetField(fd.Field)
	return q
}

func compileID(fd FieldDescriptor, raw string) query.Query {
	var ids []float64
	for _, tok := range splitTokens(raw, 0) {
		if v, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64); err == nil {
			ids = append(ids, float64(v))
		}
	}
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return numericRange(fd.Field, fptr(ids[0]), fptr(ids[0]), true, true)
	default:
		qs := make([]query.Query, len(ids))
		for i, v := range ids {
			qs[i] = numericRange(fd.Field, fptr(v), fptr(v), true, true)
		}
		return query.NewDisjunctionQuery(qs)
	}
}

func parseDateTokens(raw string, max int) []time.Time {
	var out []time.Time
	for _, tok := range splitTokens(raw, max) {
		if d, ok := parseDate(tok); ok {
			out = append(out, d)
		}
	}
	return out
}

func dateRange(field string, start, end time.Time) query.Query {
	q := query.NewDateRangeInclusiveQuery(start, end, bptr(true), bptr(true))
	q.SetField(field)
	return q
}

func dateRangeOpen(field string, start, end *time.Time, startIncl, endIncl bool) query.Query {
	var s, e time.Time
	if start != nil {
		s = *start
	}
	if end != nil {
		e = *end
	}
	q := query.NewDateRangeInclusiveQuery(s, e, bptr(startIncl), bptr(endIncl))
	q.SetField(field)
	return q
}

func compileDate(fd FieldDescriptor, raw string) query.Query {
	dates := parseDateTokens(raw, 2)
	switch len(dates) {
	case 0:
		return nil
	case 1:
		// A single day is an inclusive one-day interval.
		return dateRange(fd.Field, dates[0], dates[0])
	default:
		return dateRange(fd.Field, dates[0], dates[1])
	}
}

// compileDateRange builds the date-overlap predicate over a start/end pair.
// One date d means "d falls within [start, end]"; two distinct dates build
// the overlap test via its negated union; equal dates collapse to the
// single-date form.
func compileDateRange(fd FieldDescriptor, raw string) query.Query {
	dates := parseDateTokens(raw, 2)
	if len(dates) == 0 {
		return nil
	}

	if len(dates) == 1 || dates[0].Equal(dates[1]) {
		d := dates[0]
		return query.NewConjunctionQuery([]query.Query{
			dateRangeOpen(fd.MinField, nil, &d, true, true), // start <= d
			dateRangeOpen(fd.MaxField, &d, nil, true, true), // end >= d
		})
	}

	low, high := dates[0], dates[1]
	return query.NewBooleanQuery(
		[]query.Query{query.NewMatchAllQuery()},
		nil,
		[]query.Query{
			dateRangeOpen(fd.MinField, &high, nil, false, true), // start > high
			dateRangeOpen(fd.MaxField, nil, &low, true, false),  // end < low
		},
	)
}
