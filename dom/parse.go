package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a full HTML document.
func ParseDocument(content string) (*html.Node, error) {
	n, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	return n, nil
}

// ParseBody parses markup as body content and returns the body element.
func ParseBody(content string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader("<html><body>" + content + "</body></html>"))
	if err != nil {
		return nil, fmt.Errorf("unable to parse fragment: %w", err)
	}
	body := FindElement(doc, atom.Body)
	if body == nil {
		return nil, fmt.Errorf("parsed fragment has no body")
	}
	return body, nil
}

// Render serializes n back to markup.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("unable to render node: %w", err)
	}
	return buf.String(), nil
}

// RenderChildren serializes only n's children, useful for comparing edited
// fragments without the wrapper markup.
func RenderChildren(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("unable to render node: %w", err)
		}
	}
	return buf.String(), nil
}

// FindElement returns the first element with the given tag in document order.
func FindElement(root *html.Node, a atom.Atom) *html.Node {
	for n := root; n != nil; n = NextNode(n, nil) {
		if IsElement(n) && n.DataAtom == a {
			return n
		}
	}
	return nil
}

// FindByID returns the first element with the given id attribute.
func FindByID(root *html.Node, id string) *html.Node {
	for n := root; n != nil; n = NextNode(n, nil) {
		if IsElement(n) && Attr(n, "id") == id {
			return n
		}
	}
	return nil
}

// FirstText returns the first text node under root in document order.
func FirstText(root *html.Node) *html.Node {
	for n := root; n != nil; n = NextNode(n, nil) {
		if IsText(n) {
			return n
		}
	}
	return nil
}
