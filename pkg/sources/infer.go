package sources

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Identity is what can be inferred about a transcript from its page title and URL.
type Identity struct {
	Ticker      string
	CompanyName string
	Year        int
	Quarter     int
}

var (
	// "Microsoft (MSFT) Q4 2023 ..." or "Microsoft Corp (NASDAQ: MSFT) ..."
	titleTicker  = regexp.MustCompile(`\((?:(?:NASDAQ|NYSE|AMEX|NYSEAMERICAN|OTC)\s*:\s*)?([A-Z][A-Z0-9.]{0,9})\)`)
	// "microsoft-msft-q4-2023-earnings..." -> msft
	slugTicker   = regexp.MustCompile(`(?i)(?:^|[-/])([a-z][a-z0-9]{0,9})-q[1-4]-(?:fy-?)?(?:19|20)\d\d`)
	quarterYear  = regexp.MustCompile(`(?i)\bq([1-4])[\s-]+(?:fy-?)?((?:19|20)\d\d)\b`)
	quarterShort = regexp.MustCompile(`(?i)\b(?:fy\s*)?q([1-4])\b`)
	quarterLong  = regexp.MustCompile(`(?i)\b(first|second|third|fourth|1st|2nd|3rd|4th)[\s-]quarter\b`)
	yearPattern  = regexp.MustCompile(`\b(19[9]\d|20\d\d)\b`)
)

var quarterOrdinals = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
}

// InferIdentity extracts ticker, company, year and quarter from a page title,
// falling back to the URL path. Unknown parts are left zero.
func InferIdentity(title, rawURL string) Identity {
	var id Identity
	title = strings.TrimSpace(title)

	if m := titleTicker.FindStringSubmatchIndex(title); m != nil {
		id.Ticker = title[m[2]:m[3]]
		id.CompanyName = strings.TrimSpace(strings.TrimRight(title[:m[0]], " ,-–|"))
	}

	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	slug := strings.ToLower(path)

	if id.Ticker == "" {
		if m := slugTicker.FindStringSubmatch(slug); m != nil {
			id.Ticker = strings.ToUpper(m[1])
		}
	}

	for _, s := range []string{title, slug} {
		if m := quarterYear.FindStringSubmatch(s); m != nil && id.Quarter == 0 && id.Year == 0 {
			id.Quarter, _ = strconv.Atoi(m[1])
			id.Year, _ = strconv.Atoi(m[2])
		}
		if id.Quarter == 0 {
			id.Quarter = inferQuarter(s)
		}
		if id.Year == 0 {
			if m := yearPattern.FindStringSubmatch(s); m != nil {
				id.Year, _ = strconv.Atoi(m[1])
			}
		}
	}
	return id
}

func inferQuarter(s string) int {
	if m := quarterShort.FindStringSubmatch(s); m != nil {
		q, _ := strconv.Atoi(m[1])
		return q
	}
	if m := quarterLong.FindStringSubmatch(s); m != nil {
		return quarterOrdinals[strings.ToLower(m[1])]
	}
	return 0
}
