package content

import "strings"

// LineMatch is a transcript line containing a search query.
type LineMatch struct {
	LineNumber int      `json:"line_number"`
	Content    string   `json:"content"`
	Context    []string `json:"context"`
}

// SearchLines finds lines containing query, case-insensitively. Each match
// carries the line before and after it as context. It returns at most limit
// matches (limit <= 0 means all) along with the total number of matches.
func SearchLines(text, query string, limit int) ([]LineMatch, int) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, 0
	}

	lines := strings.Split(text, "\n")
	var matches []LineMatch
	total := 0
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), query) {
			continue
		}
		total++
		if limit > 0 && len(matches) >= limit {
			continue
		}

		lo, hi := max(0, i-1), min(len(lines), i+2)
		ctx := make([]string, 0, hi-lo)
		for _, l := range lines[lo:hi] {
			ctx = append(ctx, strings.TrimSpace(l))
		}
		matches = append(matches, LineMatch{
			LineNumber: i + 1,
			Content:    strings.TrimSpace(line),
			Context:    ctx,
		})
	}
	return matches, total
}
