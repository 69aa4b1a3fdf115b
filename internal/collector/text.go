package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextSource yields the rendered text of every element matching a selector,
// in document order
type TextSource interface {
	Texts(selector string) ([]string, error)
}

// DocumentText is a TextSource over a parsed HTML document. Text is rendered
// the way a browser lays it out: block elements and <br> start new lines and
// whitespace collapses outside <pre>.
type DocumentText struct {
	doc *goquery.Document
}

// NewDocumentText parses markup into a TextSource
func NewDocumentText(markup string) (*DocumentText, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &DocumentText{doc: doc}, nil
}

func (d *DocumentText) Texts(selector string) ([]string, error) {
	var texts []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			texts = append(texts, innerText(n))
		}
	})
	return texts, nil
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true,
}

// innerText approximates the browser's innerText for n
func innerText(n *html.Node) string {
	var sb strings.Builder

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				sb.WriteString(n.Data)
			} else {
				sb.WriteString(collapseSpace(n.Data))
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.Br:
				sb.WriteByte('\n')
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			newline()
		}
		inPre := pre || n.DataAtom == atom.Pre
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inPre)
		}
		if block {
			newline()
		}
	}
	walk(n, false)

	return strings.Trim(sb.String(), "\n ")
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
