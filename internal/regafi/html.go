package regafi

import (
	"strings"

	"golang.org/x/net/html"
)

// Predicate decides whether a node matches. Search helpers below give the
// extraction code a generic "find elements matching a predicate" capability
// over parsed fragments.
type Predicate func(*html.Node) bool

// Find returns the first node in document order (the root included) matching
// the predicate, or nil.
func Find(n *html.Node, pred Predicate) *html.Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in document order matching the predicate.
func FindAll(n *html.Node, pred Predicate) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return found
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the node's class attribute contains every one of
// the given class names.
func HasClass(n *html.Node, classes ...string) bool {
	val, ok := Attr(n, "class")
	if !ok {
		return false
	}
	have := make(map[string]bool)
	for _, c := range strings.Fields(val) {
		have[c] = true
	}
	for _, c := range classes {
		if !have[c] {
			return false
		}
	}
	return true
}

// IsElement reports whether the node is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// FirstText returns the node's first non-blank direct text child, trimmed.
// This matches the registry markup where field labels and values are the
// leading text of their element.
func FirstText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if text := strings.TrimSpace(c.Data); text != "" {
				return text
			}
		}
	}
	return ""
}

// FirstElement returns the first descendant element with the given tag, or
// nil.
func FirstElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tag) {
			return c
		}
		if found := FirstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
