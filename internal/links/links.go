// Package links extracts outbound article titles from article pages.
package links

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ArticlePrefix is the href prefix of links that point at other articles.
const ArticlePrefix = "/wiki/"

// SeeAlsoID is the element id marking the "See also" section heading.
const SeeAlsoID = "See_also"

// ExtractArticle parses an article page and returns the titles linked from
// its narrative paragraphs, followed by the titles listed under "See also".
// Only anchors pointing at /wiki/ that carry a title attribute count.
// Each title appears once, at its first position.
func ExtractArticle(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var titles []string
	seen := make(map[string]bool)
	add := func(list *html.Node) {
		for _, title := range anchorTitles(list) {
			if !seen[title] {
				seen[title] = true
				titles = append(titles, title)
			}
		}
	}

	order := preorder(doc)
	for _, n := range order {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			add(n)
		}
	}
	if list := seeAlsoList(order); list != nil {
		add(list)
	}
	return titles, nil
}

// seeAlsoList returns the first <ul> following the "See also" heading in
// document order, or nil.
func seeAlsoList(order []*html.Node) *html.Node {
	start := -1
	for i, n := range order {
		if n.Type == html.ElementNode && attr(n, "id") == SeeAlsoID {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	for _, n := range order[start+1:] {
		if n.Type == html.ElementNode && n.DataAtom == atom.Ul {
			return n
		}
	}
	return nil
}

// anchorTitles returns the title attributes of article anchors under n.
func anchorTitles(n *html.Node) []string {
	var titles []string
	for _, c := range preorder(n) {
		if c.Type != html.ElementNode || c.DataAtom != atom.A {
			continue
		}
		if !strings.HasPrefix(attr(c, "href"), ArticlePrefix) {
			continue
		}
		if title, ok := lookupAttr(c, "title"); ok {
			titles = append(titles, title)
		}
	}
	return titles
}

func preorder(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		nodes = append(nodes, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return nodes
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ExtractMarkdown parses body as markdown and returns the article titles it
// links to. A link's title attribute wins; otherwise the title is derived
// from a relative destination by dropping the .md extension and decoding
// percent escapes. Fragment-only and absolute URLs are skipped.
func ExtractMarkdown(body string) []string {
	src := []byte(body)
	reader := text.NewReader(src)
	doc := goldmark.DefaultParser().Parse(reader)

	var titles []string
	seen := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := TitleFromPath(string(link.Destination))
		if title == "" {
			return ast.WalkContinue, nil
		}
		if len(link.Title) > 0 {
			title = string(link.Title)
		}
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
		return ast.WalkContinue, nil
	})
	return titles
}

// TitleFromPath derives an article title from a relative markdown link
// destination such as "Paul_Erd%C5%91s.md". It returns "" for fragments and
// absolute URLs.
func TitleFromPath(dest string) string {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.Contains(dest, "://") {
		return ""
	}
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		dest = dest[:i]
	}
	dest = strings.TrimPrefix(dest, ArticlePrefix)
	base := strings.TrimSuffix(path.Base(dest), ".md")
	if base == "" || base == "." || base == "/" {
		return ""
	}
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}
	return strings.ReplaceAll(base, "_", " ")
}
