package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	errNotUTF8 = errors.New("file is not valid UTF-8")
	errNoBody  = errors.New("document has no body")

	blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
)

// HTMLExtractor returns the body of an HTML file with scripts, styles and
// comments removed.
type HTMLExtractor struct{}

// Extract implements Extractor.
func (HTMLExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatHTML, Err: err}
	}
	defer f.Close()

	doc, err := html.Parse(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatHTML, Err: err}
	}

	content, err := renderBody(doc)
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatHTML, Err: err}
	}
	return content, nil
}

// renderBody strips non-content nodes and renders the children of <body>.
func renderBody(doc *html.Node) (string, error) {
	prune(doc)

	body := findElement(doc, atom.Body)
	if body == nil {
		return "", errNoBody
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}

	out := blankLines.ReplaceAllString(buf.String(), "\n")
	return strings.TrimSpace(out), nil
}

// prune removes elements that carry no document content.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if dropped(c) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func dropped(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template:
			return true
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
