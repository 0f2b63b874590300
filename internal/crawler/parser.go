package crawler

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/websummary/internal/model"
)

// invisibleElements hold text that is never rendered.
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Parser extracts the structure the crawl needs from an HTML page.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Text, comments and attributes come out of one tree walk
//  3. It applies the same error recovery as browsers
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses body and returns the extracted page structure.
// contentType selects the character set; bodies without a declared charset
// are sniffed. Parse never fails: unparseable input yields an empty Page.
// URL, StatusCode and Headers are left for the caller to fill in.
func (p *Parser) Parse(body []byte, contentType string) *model.Page {
	page := &model.Page{ContentType: contentType}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}

	doc, err := html.Parse(reader)
	if err != nil {
		return page
	}

	var text textCollector
	var walk func(n *html.Node, hidden bool)
	walk = func(n *html.Node, hidden bool) {
		switch n.Type {
		case html.ElementNode:
			p.processElement(n, page)
			if invisibleElements[n.Data] {
				hidden = true
			}
		case html.TextNode:
			if !hidden {
				text.add(n.Data)
			}
		case html.CommentNode:
			page.Comments = append(page.Comments, n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, hidden)
		}
	}
	walk(doc, false)

	page.Text = text.String()
	return page
}

// processElement records the attributes of interest of an element node.
func (p *Parser) processElement(n *html.Node, page *model.Page) {
	if style, ok := getAttr(n, "style"); ok && strings.Contains(style, "background-image") {
		page.ImageCount++
	}

	switch n.Data {
	case "title":
		if page.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			page.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		if href, ok := getAttr(n, "href"); ok {
			page.Anchors = append(page.Anchors, href)
		}

	case "script":
		if src, ok := getAttr(n, "src"); ok {
			page.Scripts = append(page.Scripts, src)
		}

	case "link":
		if href, ok := getAttr(n, "href"); ok {
			page.Stylesheets = append(page.Stylesheets, href)
		}

	case "img":
		page.ImageCount++

	case "meta":
		if name, _ := getAttr(n, "name"); strings.EqualFold(name, "generator") {
			if content, ok := getAttr(n, "content"); ok {
				page.Generator = strings.TrimSpace(content)
			}
		}
	}
}

// ParseText returns a page whose only content is the decoded body text,
// whitespace-collapsed. It is used for text/* bodies that are not HTML.
func (p *Parser) ParseText(body []byte, contentType string) *model.Page {
	page := &model.Page{ContentType: contentType}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		decoded = body
	}

	page.Text = strings.Join(strings.Fields(string(decoded)), " ")
	return page
}

// textCollector joins trimmed text fragments with single spaces.
type textCollector struct {
	b strings.Builder
}

func (c *textCollector) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if c.b.Len() > 0 {
		c.b.WriteByte(' ')
	}
	c.b.WriteString(s)
}

func (c *textCollector) String() string {
	return c.b.String()
}

// getAttr retrieves an attribute value from an HTML node.
// The tokenizer lowercases attribute names.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
