package reader

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }
func (f *EPUBFormat) Extract(filename string) (string, error) {
	return ExtractTextFromEPUB(filename)
}

// ExtractTextFromEPUB extracts the text of every spine item in reading order.
// Block elements end a line so chapter headings stay on lines of their own.
func ExtractTextFromEPUB(filename string) (string, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return "", fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	var out strings.Builder

	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}
		out.WriteString(extractTextFromHTML(string(data)))
		out.WriteString("\n")
	}

	return out.String(), nil
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Title: true, atom.Blockquote: true, atom.Section: true, atom.Tr: true,
}

func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	atLineStart := true
	newline := func() {
		if !atLineStart {
			out.WriteString("\n")
			atLineStart = true
		}
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if !atLineStart {
					out.WriteString(" ")
				}
				out.WriteString(t)
				atLineStart = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			newline()
		}
	}
	walk(doc)
	return out.String()
}
