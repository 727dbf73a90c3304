package render

import (
	"fmt"
	"io"
	"strings"
)

// Document is a full HTML page shell around a rendered body. The editor
// page and the exported artifact both go through it so the markup
// surrounding a component tree is identical in either mode.
type Document struct {
	Title string
	Lang  string

	// Styles is inline CSS emitted in a <style> block.
	Styles string

	// HeadScripts are inline scripts emitted in <head> (e.g. embedded
	// project data). Emitted verbatim.
	HeadScripts []string

	// BodyScripts are inline scripts emitted at the end of <body>
	// (e.g. the runtime). Emitted verbatim.
	BodyScripts []string

	// Body is the rendered body HTML. Emitted verbatim.
	Body string
}

// WriteTo writes the complete document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	lang := d.Lang
	if lang == "" {
		lang = "en"
	}

	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, "<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", EscapeAttr(lang))
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", EscapeHTML(d.Title))
	if d.Styles != "" {
		fmt.Fprintf(&sb, "<style>\n%s\n</style>\n", d.Styles)
	}
	for _, s := range d.HeadScripts {
		fmt.Fprintf(&sb, "<script>\n%s\n</script>\n", s)
	}
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(d.Body)
	sb.WriteString("\n")
	for _, s := range d.BodyScripts {
		fmt.Fprintf(&sb, "<script>\n%s\n</script>\n", s)
	}
	sb.WriteString("</body>\n</html>\n")

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String renders the document to a string.
func (d *Document) String() string {
	var sb strings.Builder
	d.WriteTo(&sb)
	return sb.String()
}
