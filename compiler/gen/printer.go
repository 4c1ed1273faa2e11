package gen

import (
	"bytes"
	"fmt"
	"strings"
)

// DocWidth is the column at which documentation comments are wrapped.
const DocWidth = 90

// Printer builds indented source text for the text-based backends.
type Printer struct {
	buf    bytes.Buffer
	indent string
	depth  int
}

// NewPrinter returns a printer indenting by indent per level.
func NewPrinter(indent string) *Printer {
	return &Printer{indent: indent}
}

// Line writes one indented line. Without args, format is written verbatim.
func (p *Printer) Line(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if s != "" {
		p.buf.WriteString(strings.Repeat(p.indent, p.depth))
		p.buf.WriteString(s)
	}
	p.buf.WriteByte('\n')
}

// Blank writes an empty line unless the output is empty or already ends
// with one.
func (p *Printer) Blank() {
	b := p.buf.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte("\n\n")) || bytes.HasSuffix(b, []byte("{\n")) {
		return
	}
	p.buf.WriteByte('\n')
}

// Indent runs fn one level deeper.
func (p *Printer) Indent(fn func()) {
	p.depth++
	fn()
	p.depth--
}

// Comment writes doc wrapped at DocWidth, each line prefixed by prefix.
func (p *Printer) Comment(prefix, doc string) {
	for _, l := range WrapDoc(doc, DocWidth-len(prefix)-p.depth*len(p.indent)) {
		p.Line("%s", strings.TrimRight(prefix+l, " "))
	}
}

// Bytes returns the text written so far.
func (p *Printer) Bytes() []byte {
	return p.buf.Bytes()
}

// WrapDoc splits documentation into lines of at most width runes. Existing
// line breaks are kept and words longer than width get a line of their own.
func WrapDoc(doc string, width int) []string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}
	if width < 20 {
		width = 20
	}
	var lines []string
	for _, para := range strings.Split(doc, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur strings.Builder
		for _, w := range words {
			if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > width {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
			cur.WriteString(w)
		}
		lines = append(lines, cur.String())
	}
	return lines
}
