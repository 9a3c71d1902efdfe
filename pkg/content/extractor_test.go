package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFirstMatchingSelectorWins(t *testing.T) {
	page := `<html><head><title>MSFT Q4 2023</title><script>var x = "Operator: no";</script></head>
<body>
  <nav>Home | Markets | Subscribe</nav>
  <div id="article-body">
    <p>Operator: Good afternoon and welcome.</p>
    <p>Satya Nadella: Thank you.</p>
  </div>
  <div class="article-body"><p>Secondary copy of the article that should be ignored.</p></div>
  <footer>Sign up for our newsletter</footer>
</body></html>`

	text, err := Extract(page, []string{"#article-body", ".article-body", "article"})
	require.NoError(t, err)
	assert.Equal(t, "Operator: Good afternoon and welcome.\n\nSatya Nadella: Thank you.", text)
}

func TestExtractSkipsSelectorsWithoutText(t *testing.T) {
	page := `<body>
  <div id="article-body">   </div>
  <section class="transcript">Part one</section>
  <section class="transcript">Part two</section>
</body>`

	text, err := Extract(page, []string{"#article-body", ".transcript"})
	require.NoError(t, err)
	assert.Equal(t, "Part one\nPart two", text)
}

func TestExtractNestedMatchesNotDuplicated(t *testing.T) {
	page := `<body><div class="content">Outer <div class="content">Inner</div></div></body>`

	text, err := Extract(page, []string{".content"})
	require.NoError(t, err)
	assert.Equal(t, "Outer\nInner", text)
}

func TestExtractLineBreaks(t *testing.T) {
	page := `<body><article>Amy Hood: Thanks, Satya.<br>Satya Nadella:   Thank you,
	Amy.</article></body>`

	text, err := Extract(page, []string{"article"})
	require.NoError(t, err)
	assert.Equal(t, "Amy Hood: Thanks, Satya.\nSatya Nadella: Thank you, Amy.", text)
}

func TestExtractParagraphFallback(t *testing.T) {
	page := `<body>
  <p>Too short.</p>
  <p>This paragraph is definitely longer than thirty characters.</p>
  <div><p>Another paragraph that easily passes the length threshold.</p></div>
</body>`

	text, err := Extract(page, []string{"#article-body"})
	require.NoError(t, err)
	assert.Equal(t,
		"This paragraph is definitely longer than thirty characters.\nAnother paragraph that easily passes the length threshold.",
		text)
}

func TestExtractBodyFallback(t *testing.T) {
	page := `<body><div>Some text without paragraphs here</div></body>`

	text, err := Extract(page, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Some text without paragraphs here")
}

func TestExtractEmptyDocument(t *testing.T) {
	text, err := Extract(`<html><body><script>console.log("x")</script></body></html>`, []string{"article"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestSelectorExtractor(t *testing.T) {
	page := `<html><head><title>Apple (AAPL) Q1 2024 Earnings Call Transcript</title></head>
<body><h1>Apple (AAPL) Q1 2024 Earnings Call Transcript</h1><div class="entry-content">Tim Cook: Hello.</div></body></html>`

	var e Extractor = NewSelectorExtractor(".entry-content")
	text, err := e.ExtractText(page)
	require.NoError(t, err)
	assert.Equal(t, "Tim Cook: Hello.", text)

	title, err := e.ExtractTitle(page)
	require.NoError(t, err)
	assert.Contains(t, title, "AAPL")
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a   b\t c", "a b c"},
		{"\n\n a \n\n\n\n b \n\n", "a\n\nb"},
		{"line one\r\nline two", "line one\nline two"},
		{"a  b", "a b"},
		{"   \n\t\n", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeWhitespace(tt.in), "input %q", tt.in)
	}
}
