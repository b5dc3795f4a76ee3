package dom

import (
	"fmt"

	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"edkit/utils/debug"
)

// DumpTree returns a readable indented dump of the subtree rooted at n.
// It exists solely for manual inspection during debugging.
func DumpTree(n *html.Node) string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, n, 0)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *html.Node, depth int) {
	switch n.Type {
	case html.TextNode:
		tw.TextBlock(depth, "#text", n.Data)
	case html.ElementNode:
		attrs := make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			attrs[a.Key] = a.Val
		}
		tw.Line(depth, "<%s>%s", n.Data, debug.Attrs(attrs))
	case html.CommentNode:
		tw.TextBlock(depth, "#comment", n.Data)
	case html.DocumentNode:
		tw.Line(depth, "#document")
	default:
		tw.Line(depth, "#node(%d)", n.Type)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dumpNode(tw, c, depth+1)
	}
}

// DumpXML renders the subtree rooted at n as indented XML suitable for
// storing in a debug report snapshot.
func DumpXML(n *html.Node) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	appendEtree(&doc.Element, n)
	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize tree snapshot: %w", err)
	}
	return data, nil
}

func appendEtree(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		parent.CreateText(n.Data)
	case html.CommentNode:
		parent.CreateComment(n.Data)
	case html.ElementNode:
		e := parent.CreateElement(n.Data)
		for _, a := range n.Attr {
			e.CreateAttr(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendEtree(e, c)
		}
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendEtree(parent, c)
		}
	}
}
