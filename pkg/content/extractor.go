package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinParagraphChars is the shortest <p> kept by the paragraph fallback.
const MinParagraphChars = 30

// removedElements never contribute text.
const removedElements = "script, style, noscript, template, iframe, svg"

// GenericSelectors is the selector list used when a page's site is unknown.
var GenericSelectors = []string{
	"[itemprop='articleBody']",
	"article",
	"main",
	".entry-content",
	".post-content",
	".article-content",
}

// Extractor defines an interface for extracting title and text from HTML content
type Extractor interface {
	ExtractTitle(htmlContent string) (string, error)
	ExtractText(htmlContent string) (string, error)
}

// SelectorExtractor extracts text with a fixed selector priority list
type SelectorExtractor struct {
	Selectors []string
}

// NewSelectorExtractor creates an extractor trying selectors in the given order
func NewSelectorExtractor(selectors ...string) *SelectorExtractor {
	return &SelectorExtractor{Selectors: selectors}
}

// ExtractTitle extracts the page title using the default extraction logic
func (e *SelectorExtractor) ExtractTitle(htmlContent string) (string, error) {
	return ExtractTitle(htmlContent)
}

// ExtractText extracts the transcript region using the configured selectors
func (e *SelectorExtractor) ExtractText(htmlContent string) (string, error) {
	return Extract(htmlContent, e.Selectors)
}

// Extract returns the candidate transcript text of an HTML document.
//
// Selectors are tried in order; the first one matching regions with text wins
// and the text of all its matching regions is joined with newlines. Without a
// selector match it falls back to paragraphs of at least MinParagraphChars,
// then to the readability article text, then to the whole body. The result is
// whitespace-normalized and empty only if the document has no text at all.
func Extract(htmlContent string, selectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(removedElements).Remove()

	for _, selector := range selectors {
		if text := selectorText(doc, selector); text != "" {
			return text, nil
		}
	}

	if text := paragraphText(doc); text != "" {
		return text, nil
	}

	if text := readableText(htmlContent); text != "" {
		return text, nil
	}

	return NormalizeWhitespace(blockText(doc.Find("body"))), nil
}

// selectorText joins the text of every outermost region matching selector.
func selectorText(doc *goquery.Document, selector string) string {
	matches := doc.Find(selector)
	var parts []string
	matches.Each(func(_ int, s *goquery.Selection) {
		// nested matches are already part of their ancestor's text
		if s.ParentsFiltered(selector).Length() > 0 {
			return
		}
		if text := NormalizeWhitespace(blockText(s)); text != "" {
			parts = append(parts, text)
		}
	})
	return NormalizeWhitespace(strings.Join(parts, "\n"))
}

func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := NormalizeWhitespace(blockText(s))
		if utf8.RuneCountInString(text) >= MinParagraphChars {
			parts = append(parts, text)
		}
	})
	return NormalizeWhitespace(strings.Join(parts, "\n"))
}

func readableText(htmlContent string) string {
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err != nil {
		return ""
	}
	return NormalizeWhitespace(article.TextContent)
}

// ExtractTitle extracts the article title from HTML content with fallback mechanisms
func ExtractTitle(htmlContent string) (string, error) {
	// Try readability first
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err == nil {
		title := strings.TrimSpace(article.Title)
		if title != "" {
			return title, nil
		}
	}

	// Fallback: Try parsing HTML directly with goquery
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title, nil
	}
	if title, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}
	if title, exists := doc.Find("meta[name='title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}

	return "", fmt.Errorf("title not found in HTML")
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// blockText renders a selection as text, turning block elements and <br> into
// line breaks so one speaker turn stays on its own line.
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeNodeText(&b, n)
	}
	return b.String()
}

func writeNodeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return ' '
			}
			return r
		}, n.Data))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// NormalizeWhitespace collapses whitespace runs inside a line to one space,
// trims lines, collapses runs of blank lines to exactly one and drops leading
// and trailing blank lines.
func NormalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	pendingBlank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			pendingBlank = len(out) > 0
			continue
		}
		if pendingBlank {
			out = append(out, "")
			pendingBlank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
