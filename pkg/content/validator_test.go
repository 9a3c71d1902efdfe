package content

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var sampleSpeakers = []string{"Satya Nadella", "Amy Hood", "Brett Iversen", "Keith Weiss", "Mark Moerdler"}

// sampleTranscript builds text that passes every validation rule using speaker
// lines only; it contains none of the speaker keywords.
func sampleTranscript(ticker string, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Q4 %d Earnings Call Transcript\n\n", ticker, year)
	for i := 0; b.Len() < 2000; i++ {
		fmt.Fprintf(&b, "%s: The team discussed cloud growth and product plans in detail for the period.\n\n",
			sampleSpeakers[i%len(sampleSpeakers)])
	}
	return b.String()
}

func TestValidateAcceptsTranscript(t *testing.T) {
	out := Validate(sampleTranscript("MSFT", 2023), "msft", 2023)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Reasons)
	assert.Equal(t, Reason(""), out.Reason())
}

func TestValidateRoundTrip(t *testing.T) {
	text := sampleTranscript("MSFT", 2023)

	tests := []struct {
		name string
		text string
		want Reason
	}{
		{"too short", text[:500], ReasonTooShort},
		{"ticker removed", strings.ReplaceAll(text, "MSFT", "XXXX"), ReasonTickerAbsent},
		{"earnings term removed", strings.ReplaceAll(text, "Earnings Call", "Update Session"), ReasonEarningsTermAbsent},
		{"year removed", strings.ReplaceAll(text, "2023", "this year"), ReasonYearAbsent},
		{"speaker lines removed", strings.ReplaceAll(text, ": ", " said "), ReasonSpeakerSignal},
		{"marketing added", text + "\nSubscribe to our newsletter. Sign up for alerts. Start your free trial today.", ReasonMarketing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(tt.text, "MSFT", 2023)
			assert.False(t, out.Valid)
			assert.Equal(t, []Reason{tt.want}, out.Reasons)
		})
	}
}

func TestValidateFailsFast(t *testing.T) {
	// short and missing everything else: only the first rule is reported
	out := Validate("hello", "MSFT", 2023)
	assert.Equal(t, []Reason{ReasonTooShort}, out.Reasons)
}

func TestValidateMarketingThreshold(t *testing.T) {
	text := sampleTranscript("MSFT", 2023) + "\nSubscribe to our newsletter. Sign up for alerts."
	assert.True(t, Validate(text, "MSFT", 2023).Valid, "two promotional phrases are tolerated")
}

func TestValidateSpeakerKeywords(t *testing.T) {
	text := strings.ReplaceAll(sampleTranscript("MSFT", 2023), ": ", " said ")
	text += "\nOperator: we will now take questions from each analyst on the line."
	assert.True(t, Validate(text, "MSFT", 2023).Valid)
}

func TestValidateSpeakerNameLength(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, 0, v.countSpeakerLines("Bob: hi\nBob: hi\nBob: hi\nBob: hi\nBob: hi"))
	assert.Equal(t, 5, v.countSpeakerLines(strings.Repeat("Amy Hood: thanks\n", 5)))
	assert.Equal(t, 0, v.countSpeakerLines(strings.Repeat("lowercase name: thanks\n", 5)))
}

func TestValidateSkipsTickerAndYearWhenUnknown(t *testing.T) {
	text := strings.ReplaceAll(strings.ReplaceAll(sampleTranscript("MSFT", 2023), "MSFT", ""), "2023", "")
	assert.True(t, Validate(text, "", 0).Valid)
}

func TestValidateDeterministicProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("identical input yields identical outcome", prop.ForAll(
		func(suffix string, ticker string, year int) bool {
			text := sampleTranscript("MSFT", 2023) + suffix
			a := Validate(text, ticker, year)
			b := Validate(text, ticker, year)
			if !reflect.DeepEqual(a, b) {
				return false
			}
			if a.Valid {
				return len(a.Reasons) == 0
			}
			return len(a.Reasons) == 1
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.IntRange(1990, 2100),
	))

	properties.Property("extract then validate is deterministic", prop.ForAll(
		func(paragraphs []string) bool {
			var b strings.Builder
			b.WriteString("<html><body><div id=\"article-body\">")
			for _, p := range paragraphs {
				fmt.Fprintf(&b, "<p>%s</p>", p)
			}
			b.WriteString("</div></body></html>")
			page := b.String()

			t1, err1 := Extract(page, []string{"#article-body"})
			t2, err2 := Extract(page, []string{"#article-body"})
			if (err1 == nil) != (err2 == nil) || t1 != t2 {
				return false
			}
			return reflect.DeepEqual(Validate(t1, "MSFT", 2023), Validate(t2, "MSFT", 2023))
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
