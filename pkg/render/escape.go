package render

import "strings"

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\t", "&#9;",
	)
)

// EscapeHTML escapes text for inclusion in HTML content.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeAttr escapes text for inclusion in an attribute value. Newlines
// and tabs are escaped too so attribute parsing cannot break.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
