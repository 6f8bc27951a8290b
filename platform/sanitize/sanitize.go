// Package sanitize cleans free text submitted through public forms.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// Text removes markup and trims the result. Entities are decoded and the
// text is stripped a second time so encoded tags do not survive.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = entities.Replace(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// SingleLine is Text with every run of whitespace collapsed to one space.
// Used for names and other one-line fields.
func SingleLine(s string) string {
	return spacePattern.ReplaceAllString(Text(s), " ")
}

// TextPtr sanitizes an optional field. Nil and blank input yield nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
