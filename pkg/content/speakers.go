package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// titledSpeakerLine matches the "Name -- Title" header lines some sites put
// above each speaker turn.
var titledSpeakerLine = regexp.MustCompile(`(?m)^[ \t]*([A-Z][\w.'’-]*(?:[ \t]+[A-Z][\w.'’-]*){0,4})[ \t]+(?:--|—|–)[ \t]+\S`)

var qaMarkers = []string{
	"question-and-answer session",
	"questions and answers",
	"questions & answers",
	"question-and-answer",
	"q&a session",
}

// ParseSpeakers returns the distinct speaker names of a transcript in order of
// first appearance.
func ParseSpeakers(text string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{speakerLine, titledSpeakerLine} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			name := text[m[2]:m[3]]
			if l := utf8.RuneCountInString(name); l < 3 || l > 40 {
				continue
			}
			hits = append(hits, hit{pos: m[2], name: name})
		}
	}

	// order by position across both patterns
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	seen := make(map[string]bool)
	speakers := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.name] {
			continue
		}
		seen[h.name] = true
		speakers = append(speakers, h.name)
	}
	return speakers
}

// SplitQA returns the question-and-answer part of a transcript, starting at
// the first line announcing it. It returns "" when no such line exists.
func SplitQA(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range qaMarkers {
			if strings.Contains(lower, marker) {
				return strings.TrimSpace(strings.Join(lines[i:], "\n"))
			}
		}
	}
	return ""
}
