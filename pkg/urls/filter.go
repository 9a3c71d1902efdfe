package urls

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"earnings-transcripts/pkg/httpclient"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// FilterURLs applies all filters to a list of URLs
func FilterURLs(ctx context.Context, urls []string, filters ...UrlFilter) ([]string, error) {
	if len(filters) == 0 {
		return urls, nil
	}

	filtered := make([]string, 0, len(urls))
	for _, urlStr := range urls {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, urlStr)
			if err != nil {
				return nil, fmt.Errorf("filter error for URL %s: %w", urlStr, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, urlStr)
		}
	}
	return filtered, nil
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		// If we can't parse it, don't filter it out (let it fail later if needed)
		return true, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// ContainsPathFilter keeps URLs containing any of the given path segments
type ContainsPathFilter struct {
	pathSegments []string // e.g. "/earnings/call-transcripts/"
}

// NewContainsPathFilter creates a new path filter that keeps URLs containing one of the segments
func NewContainsPathFilter(pathSegments ...string) *ContainsPathFilter {
	return &ContainsPathFilter{
		pathSegments: pathSegments,
	}
}

// ShouldKeep returns true if URL contains one of the path segments
func (f *ContainsPathFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	for _, seg := range f.pathSegments {
		if strings.Contains(urlStr, seg) {
			return true, nil
		}
	}
	return false, nil
}

// AllowedDomainFilter keeps http(s) URLs on one of the allowed domains or their subdomains
type AllowedDomainFilter struct {
	domains []string
}

// NewAllowedDomainFilter creates a filter for the given domains
func NewAllowedDomainFilter(domains ...string) *AllowedDomainFilter {
	return &AllowedDomainFilter{domains: domains}
}

// ShouldKeep returns true if the URL's host is allowed
func (f *AllowedDomainFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false, nil
	}
	return httpclient.HostAllowed(urlStr, f.domains), nil
}
