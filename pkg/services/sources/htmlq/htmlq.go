// Package htmlq is a small query layer over golang.org/x/net/html for the
// table-shaped pages the forecast sources scrape.
package htmlq

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Matcher selects element nodes.
type Matcher func(n *html.Node) bool

func Parse(text string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Tag matches elements by tag name.
func Tag(name string) Matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

// TagClass matches `tag.class`.
func TagClass(tag, class string) Matcher {
	return func(n *html.Node) bool {
		return Tag(tag)(n) && HasClass(n, class)
	}
}

// TagID matches `tag#id`.
func TagID(tag, id string) Matcher {
	return TagAttr(tag, "id", id)
}

// TagAttr matches `tag[attr='value']`.
func TagAttr(tag, attr, value string) Matcher {
	return func(n *html.Node) bool {
		if !Tag(tag)(n) {
			return false
		}
		v, ok := Attr(n, attr)
		return ok && v == value
	}
}

// Find returns the first descendant of n, in document order, accepted by m.
func Find(n *html.Node, m Matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := Find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// Children returns the direct element children of n whose tag is one of tags.
// With no tags every element child is returned.
func Children(n *html.Node, tags ...string) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if len(tags) == 0 || contains(tags, c.Data) {
			out = append(out, c)
		}
	}
	return out
}

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Text collects the text nodes below n, trims each one, drops the empty
// ones and joins the rest with sep.
func Text(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if s := strings.TrimSpace(node.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return strings.Join(parts, sep)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
