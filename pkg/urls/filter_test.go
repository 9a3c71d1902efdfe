package urls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURLFilter(t *testing.T) {
	f := NewBaseURLFilter()
	ctx := context.Background()

	keep, err := f.ShouldKeep(ctx, "https://www.fool.com/")
	require.NoError(t, err)
	assert.False(t, keep)

	keep, _ = f.ShouldKeep(ctx, "https://www.fool.com")
	assert.False(t, keep)

	keep, _ = f.ShouldKeep(ctx, "https://www.fool.com/earnings/call-transcripts/x/")
	assert.True(t, keep)
}

func TestContainsPathFilter(t *testing.T) {
	f := NewContainsPathFilter("/earnings/call-transcripts/", "/article/")
	ctx := context.Background()

	keep, _ := f.ShouldKeep(ctx, "https://seekingalpha.com/article/123-msft-q4")
	assert.True(t, keep)
	keep, _ = f.ShouldKeep(ctx, "https://seekingalpha.com/news/123-msft-q4")
	assert.False(t, keep)
}

func TestAllowedDomainFilter(t *testing.T) {
	f := NewAllowedDomainFilter("alphastreet.com")
	ctx := context.Background()

	for u, want := range map[string]bool{
		"https://news.alphastreet.com/msft-q4":   true,
		"https://alphastreet.com/x":             true,
		"https://notalphastreet.com/x":          false,
		"ftp://news.alphastreet.com/transcript": false,
		"://broken":                             false,
	} {
		keep, err := f.ShouldKeep(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, want, keep, u)
	}
}

func TestFilterURLsWithoutFilters(t *testing.T) {
	in := []string{"a", "b"}
	out, err := FilterURLs(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
