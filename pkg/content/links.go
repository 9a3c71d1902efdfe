package content

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	errEmptyHTML         = errors.New("empty HTML content")
	errNoTranscriptLink  = errors.New("no transcript link found in HTML")
	errFailedToParseHTML = errors.New("failed to parse HTML for transcript link")
)

var quarterWords = map[int][]string{
	1: {"first", "1st"},
	2: {"second", "2nd"},
	3: {"third", "3rd"},
	4: {"fourth", "4th"},
}

// QuarterTokens returns the spellings used for a quarter in titles and slugs,
// e.g. "q4", "fourth quarter", "fourth-quarter", "4th quarter".
func QuarterTokens(quarter int) []string {
	tokens := []string{fmt.Sprintf("q%d", quarter)}
	for _, w := range quarterWords[quarter] {
		tokens = append(tokens, w+" quarter", w+"-quarter")
	}
	return tokens
}

// LinkQuery identifies the transcript a listing page should link to.
type LinkQuery struct {
	Ticker  string
	Year    int
	Quarter int
}

// FindTranscriptLinks returns the links of a listing or search page whose
// anchor text or href mentions the ticker, a quarter token and the year.
// Relative hrefs are resolved against baseURL. Links that also mention
// "transcript" come first; otherwise document order is kept.
func FindTranscriptLinks(htmlContent, baseURL string, q LinkQuery) ([]string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, errEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, errors.Join(errFailedToParseHTML, err)
	}

	var (
		highPriority []string // mentions transcript
		lowPriority  []string
		seen         = make(map[string]bool)
	)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		hay := strings.ToLower(strings.Join(strings.Fields(sel.Text()), " ") + " " + href)
		if !MatchesTranscript(hay, q) {
			return
		}

		resolved, err := resolveAgainst(baseURL, href)
		if err != nil || seen[resolved] {
			return
		}
		seen[resolved] = true

		if strings.Contains(hay, "transcript") {
			highPriority = append(highPriority, resolved)
		} else {
			lowPriority = append(lowPriority, resolved)
		}
	})

	links := append(highPriority, lowPriority...)
	if len(links) == 0 {
		return nil, errNoTranscriptLink
	}
	return links, nil
}

// MatchesTranscript reports whether text (a title, anchor text or URL)
// mentions the ticker as a whole word, a quarter token and the year.
func MatchesTranscript(text string, q LinkQuery) bool {
	lower := strings.ToLower(text)
	return containsToken(lower, strings.ToLower(q.Ticker)) &&
		strings.Contains(lower, fmt.Sprint(q.Year)) &&
		containsAnyToken(lower, QuarterTokens(q.Quarter))
}

// FindTranscriptURL locates a transcript document link (PDF or TXT) on a page,
// such as an investor-relations event page, and resolves it against baseURL.
//
// Candidates are ranked:
//  1. anchor text mentions "transcript" and href looks like a document
//  2. href looks like a document and anchor text mentions "earnings" or "call"
//  3. anchor text mentions "transcript"
func FindTranscriptURL(htmlContent, baseURL string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", errEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", errors.Join(errFailedToParseHTML, err)
	}

	var high, medium, low []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		docLike := isDocumentLikeTranscriptHref(href)
		mentionsTranscript := strings.Contains(text, "transcript") || strings.Contains(strings.ToLower(href), "transcript")

		switch {
		case docLike && mentionsTranscript:
			high = append(high, href)
		case docLike && (strings.Contains(text, "earnings") || strings.Contains(text, "call")):
			medium = append(medium, href)
		case mentionsTranscript:
			low = append(low, href)
		}
	})

	for _, bucket := range [][]string{high, medium, low} {
		if len(bucket) > 0 {
			return resolveAgainst(baseURL, bucket[0])
		}
	}
	return "", errNoTranscriptLink
}

// isDocumentLikeTranscriptHref returns true if the href looks like a transcript
// document we should try to fetch (e.g., .pdf or .txt).
func isDocumentLikeTranscriptHref(href string) bool {
	parsed, err := url.Parse(href)
	if err != nil {
		return hasTranscriptFileExtension(href)
	}
	return hasTranscriptFileExtension(parsed.Path)
}

func hasTranscriptFileExtension(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf", ".txt":
		return true
	default:
		return false
	}
}

// containsToken reports whether tok occurs in s bounded by non-alphanumerics.
func containsToken(s, tok string) bool {
	if tok == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(s[start:], tok)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(tok)
		if (i == 0 || !isAlnum(rune(s[i-1]))) && (end == len(s) || !isAlnum(rune(s[end]))) {
			return true
		}
		start = i + 1
	}
}

func containsAnyToken(s string, tokens []string) bool {
	for _, tok := range tokens {
		if containsToken(s, tok) {
			return true
		}
	}
	return false
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// resolveAgainst resolves ref against baseURL. An empty baseURL requires ref
// to be absolute.
func resolveAgainst(baseURL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", err
		}
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("cannot resolve relative link %q", ref)
	}
	u.Fragment = ""
	return u.String(), nil
}
