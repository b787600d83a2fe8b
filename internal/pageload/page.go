// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package pageload

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tomtom215/pagetracker/internal/tracker"
)

// Product data attributes, the dataset keys productId, productName,
// productPrice and productCategory.
const (
	attrProductID       = "data-product-id"
	attrProductName     = "data-product-name"
	attrProductPrice    = "data-product-price"
	attrProductCategory = "data-product-category"
)

// DefaultProductElementID is the id of the element carrying product data.
const DefaultProductElementID = "product-data"

// Parse parses an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// ParseFile parses the HTML document at path.
func ParseFile(path string) (*html.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Title returns the trimmed text of the first <title> element, or "".
func Title(doc *html.Node) string {
	n := find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Title
	})
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Product reads the data-product-* attributes of the element with id
// elementID. ok is false when the element does not exist; a present element
// without a product id still returns its other fields.
func Product(doc *html.Node, elementID string) (tracker.ProductData, bool) {
	if elementID == "" {
		elementID = DefaultProductElementID
	}
	n := find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == elementID
	})
	if n == nil {
		return tracker.ProductData{}, false
	}
	return tracker.ProductData{
		ID:       attr(n, attrProductID),
		Name:     attr(n, attrProductName),
		Price:    attr(n, attrProductPrice),
		Category: attr(n, attrProductCategory),
	}, true
}

// PageName is the automatic page view label: the title when there is one,
// otherwise the path of pageURL.
func PageName(title, pageURL string) string {
	if title != "" {
		return title
	}
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
