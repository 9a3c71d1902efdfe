package urls

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url>
		<loc>https://news.alphastreet.com/microsoft-msft-q4-2023-earnings-call-transcript/</loc>
		<lastmod>2023-07-26</lastmod>
	</url>
	<url>
		<loc>https://news.alphastreet.com/microsoft-msft-q3-2023-earnings-call-transcript/</loc>
	</url>
	<url>
		<loc>https://news.alphastreet.com/nvidia-nvda-q4-2023-earnings-call-transcript/</loc>
	</url>
</urlset>`

const sitemapIndexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<sitemap><loc>https://news.alphastreet.com/page-sitemap.xml</loc></sitemap>
	<sitemap><loc>https://news.alphastreet.com/post-sitemap-2023.xml</loc></sitemap>
</sitemapindex>`

var msftQ4 = Query{Ticker: "MSFT", Year: 2023, Quarter: 4}

func TestSitemapGenerator(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://news.alphastreet.com/post-sitemap.xml": postSitemap,
	}}
	g := NewSitemapGenerator(f, "https://news.alphastreet.com/post-sitemap.xml")

	got, err := g.Generate(context.Background(), msftQ4)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://news.alphastreet.com/microsoft-msft-q4-2023-earnings-call-transcript/"}, got)
}

func TestSitemapGeneratorFollowsIndex(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://news.alphastreet.com/sitemap_index.xml":     sitemapIndexXML,
		"https://news.alphastreet.com/post-sitemap-2023.xml": postSitemap,
	}}
	g := NewSitemapGenerator(f, "https://news.alphastreet.com/sitemap_index.xml")

	got, err := g.Generate(context.Background(), msftQ4)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://news.alphastreet.com/microsoft-msft-q4-2023-earnings-call-transcript/"}, got)
	// the child naming the year is fetched before the other one
	require.Len(t, f.requested, 3)
	assert.Equal(t, "https://news.alphastreet.com/post-sitemap-2023.xml", f.requested[1])
}

func TestSitemapGeneratorNoMatch(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap.xml": postSitemap,
	}}
	got, err := NewSitemapGenerator(f, "https://example.com/sitemap.xml").
		Generate(context.Background(), Query{Ticker: "AAPL", Year: 2023, Quarter: 4})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSitemapGeneratorErrors(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/broken.xml": "<urlset><url><loc>",
		"https://example.com/empty.xml":  `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`,
	}}

	for _, u := range []string{"https://example.com/broken.xml", "https://example.com/empty.xml", "https://example.com/missing.xml"} {
		_, err := NewSitemapGenerator(f, u).Generate(context.Background(), msftQ4)
		assert.Error(t, err, u)
	}
}

func TestPickSitemaps(t *testing.T) {
	children := []string{"a.xml", "b-2022.xml", "c.xml", "d-2023.xml", "e.xml"}
	assert.Equal(t, []string{"d-2023.xml", "e.xml", "c.xml"}, pickSitemaps(children, 2023))
}

func TestPickSitemapsNumberedPrefersNewest(t *testing.T) {
	var children []string
	for i := 1; i <= 12; i++ {
		children = append(children, fmt.Sprintf("https://news.alphastreet.com/post-sitemap%d.xml", i))
	}
	assert.Equal(t, []string{
		"https://news.alphastreet.com/post-sitemap12.xml",
		"https://news.alphastreet.com/post-sitemap11.xml",
		"https://news.alphastreet.com/post-sitemap10.xml",
	}, pickSitemaps(children, 2023))
}
