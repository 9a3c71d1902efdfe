package content

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Reason tags why text was rejected as a transcript.
type Reason string

const (
	ReasonTooShort           Reason = "too-short"
	ReasonTickerAbsent       Reason = "ticker-absent"
	ReasonEarningsTermAbsent Reason = "earnings-term-absent"
	ReasonYearAbsent         Reason = "year-absent"
	ReasonSpeakerSignal      Reason = "insufficient-speaker-signal"
	ReasonMarketing          Reason = "marketing-content-dominant"
)

// ValidationOutcome is the result of Validate. Validation stops at the first
// failing rule, so an invalid outcome carries exactly one reason.
type ValidationOutcome struct {
	Valid   bool
	Reasons []Reason
}

// Reason returns the first rejection reason, or "" for a valid outcome.
func (o ValidationOutcome) Reason() Reason {
	if len(o.Reasons) == 0 {
		return ""
	}
	return o.Reasons[0]
}

// speakerLine matches "Capitalized Name(s):" at the start of a line.
var speakerLine = regexp.MustCompile(`(?m)^[ \t]*([A-Z][\w.'’-]*(?:[ \t]+[A-Z][\w.'’-]*)*)[ \t]*:`)

// Validator decides whether text is plausibly an earnings-call transcript.
type Validator struct {
	MinLength           int
	EarningsTerms       []string
	SpeakerKeywords     []string
	MinSpeakerKeywords  int
	MinSpeakerLines     int
	MinSpeakerNameLen   int
	MaxSpeakerNameLen   int
	MarketingPhrases    []string
	MaxMarketingPhrases int
}

// NewValidator returns a validator with the standard thresholds.
func NewValidator() *Validator {
	return &Validator{
		MinLength: 1000,
		EarningsTerms: []string{
			"earnings", "quarterly", "revenue", "conference call", "earnings call", "fiscal",
		},
		SpeakerKeywords: []string{
			"operator:", "analyst", "ceo", "cfo", "management", "question:", "answer:",
		},
		MinSpeakerKeywords: 2,
		MinSpeakerLines:    5,
		MinSpeakerNameLen:  5,
		MaxSpeakerNameLen:  40,
		MarketingPhrases: []string{
			"subscribe to our newsletter",
			"sign up for",
			"view all transcripts",
			"start your free trial",
			"premium membership",
			"join now",
			"create a free account",
			"unlock this article",
		},
		MaxMarketingPhrases: 2,
	}
}

var defaultValidator = NewValidator()

// Validate checks text with the standard validator.
func Validate(text, ticker string, year int) ValidationOutcome {
	return defaultValidator.Validate(text, ticker, year)
}

// Validate applies the rules in order and stops at the first failure:
// minimum length, ticker present, an earnings term present, year present,
// enough speaker signal, and not too many promotional phrases. An empty
// ticker or a zero year skips the corresponding rule.
func (v *Validator) Validate(text, ticker string, year int) ValidationOutcome {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	if utf8.RuneCountInString(text) < v.MinLength {
		return reject(ReasonTooShort)
	}
	if ticker = strings.TrimSpace(ticker); ticker != "" && !strings.Contains(lower, strings.ToLower(ticker)) {
		return reject(ReasonTickerAbsent)
	}
	if countPresent(lower, v.EarningsTerms) == 0 {
		return reject(ReasonEarningsTermAbsent)
	}
	if year != 0 && !strings.Contains(text, strconv.Itoa(year)) {
		return reject(ReasonYearAbsent)
	}
	if countPresent(lower, v.SpeakerKeywords) < v.MinSpeakerKeywords && v.countSpeakerLines(text) < v.MinSpeakerLines {
		return reject(ReasonSpeakerSignal)
	}
	if countPresent(lower, v.MarketingPhrases) > v.MaxMarketingPhrases {
		return reject(ReasonMarketing)
	}
	return ValidationOutcome{Valid: true}
}

func reject(reason Reason) ValidationOutcome {
	return ValidationOutcome{Reasons: []Reason{reason}}
}

// countPresent counts how many of terms occur in lower.
func countPresent(lower string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

func (v *Validator) countSpeakerLines(text string) int {
	n := 0
	for _, m := range speakerLine.FindAllStringSubmatch(text, -1) {
		if v.speakerNameLen(m[1]) {
			n++
		}
	}
	return n
}

func (v *Validator) speakerNameLen(name string) bool {
	l := utf8.RuneCountInString(name)
	return l >= v.MinSpeakerNameLen && l <= v.MaxSpeakerNameLen
}
