package sites

import (
	"earnings-transcripts/pkg/content"
	"earnings-transcripts/pkg/urls"
)

// OfficialSources asks a chat model where the company publishes its
// transcripts. Investor-relations pages usually link a PDF rather than
// embedding the text, so document links are followed.
func OfficialSources(completer urls.Completer) Profile {
	return Profile{
		Name:      "official-sources",
		Selectors: content.GenericSelectors,
		Candidates: urls.NewChain(urls.NewLLMGenerator(completer, 5)).WithFilters(
			urls.NewBaseURLFilter(),
		),
		FollowDocumentLinks: true,
	}
}
