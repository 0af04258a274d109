// Package htmlsanitize cleans user-supplied forum content before it is
// stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = newUGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	return p
}

// Sanitize keeps safe formatting (paragraphs, lists, links, images, code)
// and drops scripts, event handlers, iframes and form elements.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// StripTags removes all markup. Used for titles, categories and tags.
// Entities produced by the policy are decoded back so the stored value is
// plain text.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// StripAll applies StripTags to every element and drops empties.
func StripAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := StripTags(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
