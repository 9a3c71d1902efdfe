package worker

import (
	"fmt"
	"strings"

	"earnings-transcripts/pkg/domain"
)

// Plan describes a block of quarters to prefetch for a set of tickers.
type Plan struct {
	Tickers  []string
	FromYear int
	ToYear   int
	// Quarters defaults to 1-4.
	Quarters []int
}

// Requests expands the plan ticker-major, oldest quarter first. Blank and
// duplicate tickers are dropped.
func (p Plan) Requests() ([]domain.TranscriptRequest, error) {
	if p.FromYear > p.ToYear {
		return nil, fmt.Errorf("from year %d is after to year %d", p.FromYear, p.ToYear)
	}
	quarters := p.Quarters
	if len(quarters) == 0 {
		quarters = []int{1, 2, 3, 4}
	}

	seen := make(map[string]bool)
	var reqs []domain.TranscriptRequest
	for _, t := range p.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true

		for y := p.FromYear; y <= p.ToYear; y++ {
			for _, q := range quarters {
				req := domain.TranscriptRequest{Ticker: t, Year: y, Quarter: q}
				if err := req.Validate(); err != nil {
					return nil, err
				}
				reqs = append(reqs, req)
			}
		}
	}
	return reqs, nil
}
