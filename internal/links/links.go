// Package links extracts internal article links from rendered wiki pages.
package links

import (
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StopIDs are anchor ids that mark the start of the reference, footnote and
// category sections. Scanning ends at the first anchor carrying one.
var StopIDs = []string{
	"References", "catlinks", "External_links", "Notes", "Footnotes", "Citations",
}

// DenySubstrings disqualify an href: citation markers, disambiguation pages,
// external schemes, namespaced pages and edit/query links.
var DenySubstrings = []string{
	"cite_note", "Citation_needed", "NOTRS", "https", "(disambiguation)", ":", "action=",
}

const (
	// ArticlePathMarker must appear in the href of an internal article link.
	ArticlePathMarker = "/wiki"

	contentClass   = "mw-content-ltr"
	noArticleClass = "noarticletext"
)

// Page is the result of scanning one rendered article.
type Page struct {
	// Exists is false for missing pages and pages without a content region.
	// An article with no qualifying links still exists.
	Exists bool
	// Links holds distinct article titles in first-occurrence order.
	Links []string
}

// Extract parses an HTML document and returns the internal article titles
// linked from its main content region.
func Extract(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}
	return extractNode(doc), nil
}

// extractNode is Extract over an already parsed document.
func extractNode(doc *html.Node) Page {
	if findByClass(doc, noArticleClass) != nil {
		return Page{}
	}
	content := findByClass(doc, contentClass)
	if content == nil {
		return Page{}
	}

	var titles []string
	seen := make(map[string]struct{})
	walk(content, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if href == "" {
			return true
		}
		if slices.Contains(StopIDs, attr(n, "id")) {
			return false
		}
		if !IsArticleHref(href) {
			return true
		}
		title := attr(n, "title")
		if title == "" {
			return true
		}
		if _, dup := seen[title]; dup {
			return true
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
		return true
	})

	return Page{Exists: true, Links: titles}
}

// IsArticleHref reports whether href points at an internal article.
func IsArticleHref(href string) bool {
	if !strings.Contains(href, ArticlePathMarker) {
		return false
	}
	for _, bad := range DenySubstrings {
		if strings.Contains(href, bad) {
			return false
		}
	}
	return true
}

// walk visits the descendants of root in document order until fn returns
// false. It reports whether the walk ran to completion.
func walk(root *html.Node, fn func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return false
		}
		return true
	})
	return found
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
