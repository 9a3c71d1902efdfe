package urls

import "context"

// PatternGenerator expands fixed URL templates. It never touches the network.
type PatternGenerator struct {
	templates []string
}

// NewPatternGenerator creates a generator for the given templates, see Expand
func NewPatternGenerator(templates ...string) *PatternGenerator {
	return &PatternGenerator{templates: templates}
}

// Generate implements Generator
func (g *PatternGenerator) Generate(_ context.Context, q Query) ([]string, error) {
	out := make([]string, 0, len(g.templates))
	for _, t := range g.templates {
		out = append(out, Expand(t, q))
	}
	return out, nil
}
