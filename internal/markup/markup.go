// Package markup parses HTML documents into a queryable tree.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/rs/zerolog/log"
	xhtml "golang.org/x/net/html"
)

// ErrEmptyDocument is wrapped by ParseError when the content has no markup at all
var ErrEmptyDocument = errors.New("document is empty")

// ParseErrorKind classifies parse failures
type ParseErrorKind int

const (
	KindMalformed ParseErrorKind = iota
)

// ParseError is returned when content cannot be turned into a document tree
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Tree is a parsed document bound to the origin its references resolve against
type Tree struct {
	root   *xhtml.Node
	origin *url.URL
	doc    *goquery.Document
}

// Parse builds a Tree from decoded content. baseURL supplies the scheme and
// host used when resolving references; its path is ignored.
func Parse(content []byte, baseURL string) (*Tree, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &ParseError{Kind: KindMalformed, Err: ErrEmptyDocument}
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ParseError{Kind: KindMalformed, Err: fmt.Errorf("invalid base URL %q", baseURL)}
	}

	root, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Kind: KindMalformed, Err: err}
	}

	return &Tree{
		root:   root,
		origin: &url.URL{Scheme: strings.ToLower(base.Scheme), Host: base.Host},
		doc:    goquery.NewDocumentFromNode(root),
	}, nil
}

// Origin returns scheme://host of the document
func (t *Tree) Origin() string {
	return t.origin.String()
}

// Scheme returns the document's URL scheme
func (t *Tree) Scheme() string {
	return t.origin.Scheme
}

// Host returns the document's host, including any port
func (t *Tree) Host() string {
	return t.origin.Host
}

// Document exposes the tree for CSS selector queries
func (t *Tree) Document() *goquery.Document {
	return t.doc
}

// Query evaluates an XPath expression. With multiple unset at most the first
// match is returned. An invalid expression yields no matches.
func (t *Tree) Query(expr string, multiple bool) []*xhtml.Node {
	if !multiple {
		node, err := htmlquery.Query(t.root, expr)
		if err != nil {
			log.Debug().Err(err).Str("xpath", expr).Msg("Invalid XPath expression")
			return nil
		}
		if node == nil {
			return nil
		}
		return []*xhtml.Node{node}
	}

	nodes, err := htmlquery.QueryAll(t.root, expr)
	if err != nil {
		log.Debug().Err(err).Str("xpath", expr).Msg("Invalid XPath expression")
		return nil
	}
	return nodes
}

// Text returns the text content of a node. For attribute matches this is the
// attribute value.
func Text(n *xhtml.Node) string {
	return htmlquery.InnerText(n)
}

// StartTag renders the opening tag of an element, attributes in source order
func StartTag(n *xhtml.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, attr := range n.Attr {
		b.WriteByte(' ')
		if attr.Namespace != "" {
			b.WriteString(attr.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attr.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}
