// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package documents

import (
	"regexp"
	"strings"
)

// inlineTags is the fixed set of lightweight markup tags allowed in titles,
// summaries and descriptions. Both [tag] and [/tag] forms are stripped before
// indexing; markup must never leak into index records.
var inlineTags = []string{
	"b", "i", "u", "s", "sup", "sub", "c",
	"url", "email", "abbr", "colored", "picto",
	"center", "right", "important", "warning",
}

var markupRe = func() *regexp.Regexp {
	alt := strings.Join(inlineTags, "|")
	// Opening tags may carry an attribute part, e.g. [url=http://...].
	return regexp.MustCompile(`\[/?(?:` + alt + `)(?:=[^\]]*)?\]`)
}()

// StripMarkup removes the inline markup tags from s, leaving the enclosed
// text in place. Unknown bracketed sequences are left untouched.
func StripMarkup(s string) string {
	if !strings.Contains(s, "[") {
		return s
	}
	return markupRe.ReplaceAllString(s, "")
}
